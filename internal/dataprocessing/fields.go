package dataprocessing

// Raw field names emitted by the extractors. They follow the column labels of
// the source reports and are mapped onto canonical names by the Normalizer.
const (
	FieldCustomer         = "CustomerName"
	FieldBillNo           = "BillNo"
	FieldDate             = "Date"
	FieldItem             = "ItemName"
	FieldBatch            = "BatchNo"
	FieldExpiry           = "Expiry"
	FieldPTR              = "PTR"
	FieldNFree            = "NFREE"
	FieldQuantity         = "Quantity"
	FieldFree             = "FREE"
	FieldValue            = "Value"
	FieldRegion           = "Region"
	FieldArea             = "Area"
	FieldDistributor      = "Distributor"
	FieldManufacturer     = "Manufacturer"
	FieldPackSize         = "Pack_Size"
	FieldMRP              = "MRP"
	FieldProductDiscount  = "Product_Discount_Percent"
	FieldDiscountAmount   = "Discount_Amount"
	FieldCustomerDiscount = "Customer_Discount_Percent"
)

const (
	unknownName  = "Unknown"
	notAvailable = "N/A"
)
