package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Transaction is the canonical sales line every source format is normalized into.
type Transaction struct {
	CustomerName            string    `json:"customer_name" db:"customer_name"`
	ItemName                string    `json:"item_name" db:"item_name" validate:"required"`
	Date                    time.Time `json:"date" db:"date" validate:"required"`
	BillNo                  string    `json:"bill_no" db:"bill_no"`
	Quantity                int64     `json:"quantity" db:"quantity" validate:"gte=0"`
	FreeQuantity            int64     `json:"free_quantity" db:"free_quantity" validate:"gte=0"`
	PTR                     float64   `json:"ptr" db:"ptr"`
	Value                   float64   `json:"value" db:"value"`
	BatchNo                 string    `json:"batch_no" db:"batch_no"`
	Expiry                  string    `json:"expiry" db:"expiry"`
	Area                    string    `json:"area" db:"area"`
	Distributor             string    `json:"distributor" db:"distributor"`
	Manufacturer            string    `json:"manufacturer" db:"manufacturer"`
	PackSize                string    `json:"pack_size" db:"pack_size"`
	MRP                     float64   `json:"mrp" db:"mrp"`
	ProductDiscountPercent  float64   `json:"product_discount_percent" db:"product_discount_percent"`
	DiscountAmount          float64   `json:"discount_amount" db:"discount_amount"`
	CustomerDiscountPercent float64   `json:"customer_discount_percent" db:"customer_discount_percent"`
}

// CanonicalFields lists the canonical column names in export order.
var CanonicalFields = []string{
	"customer_name", "item_name", "date", "bill_no", "quantity", "free_quantity", "ptr", "value",
	"batch_no", "expiry", "area", "distributor", "manufacturer", "pack_size", "mrp",
	"product_discount_percent", "discount_amount", "customer_discount_percent",
}

// TransactionKey identifies a transaction for persistence purposes.
type TransactionKey struct {
	BillNo   string
	Date     string
	ItemName string
}

// Key returns the (bill_no, date, item_name) uniqueness key.
func (t Transaction) Key() TransactionKey {
	return TransactionKey{BillNo: t.BillNo, Date: t.Date.Format(DateLayout), ItemName: t.ItemName}
}

// MarshalJSON writes the date as a plain calendar date.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(t), Date: t.Date.Format(DateLayout)})
}

// UnmarshalJSON accepts the calendar date written by MarshalJSON.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	aux := struct {
		*alias
		Date string `json:"date"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		t.Date = time.Time{}
		return nil
	}
	d, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		return err
	}
	t.Date = d
	return nil
}

// SourceFile records an uploaded file. It exists whether or not its content parsed.
type SourceFile struct {
	ID         string    `json:"id" db:"id"`
	FileName   string    `json:"file_name" db:"file_name"`
	FileHash   string    `json:"file_hash" db:"file_hash"`
	Size       int64     `json:"size" db:"size"`
	StoredPath string    `json:"stored_path" db:"stored_path"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
