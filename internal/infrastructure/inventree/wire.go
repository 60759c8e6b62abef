package inventree

// Wire-format DTOs for the remote inventory service's JSON responses,
// shaped after spec §6.2's operation table (and, for field names,
// InvenTree's actual REST schema as read from
// original_source/src/inventree_api_helpers.py).

type partDTO struct {
	ID               int64   `json:"pk"`
	Name             string  `json:"name"`
	Assembly         bool    `json:"assembly"`
	IsTemplate       bool    `json:"is_template"`
	InStock          float64 `json:"in_stock"`
	VariantStock     float64 `json:"variant_stock"`
	ManufacturerName string  `json:"manufacturer_name"`
}

type bomLineDTO struct {
	SubPart       int64   `json:"sub_part"`
	Quantity      float64 `json:"quantity"`
	AllowVariants bool    `json:"allow_variants"`
}

type requirementDTO struct {
	Required float64 `json:"required"`
}

type purchaseOrderLineDTO struct {
	Part     int64   `json:"part"`
	Quantity float64 `json:"quantity"`
	Received float64 `json:"received"`
	Status   int     `json:"status"`
}

type buildOrderLineDTO struct {
	Part      int64   `json:"part"`
	Quantity  float64 `json:"quantity"`
	Completed float64 `json:"completed"`
	Status    int     `json:"status"`
}

type supplierPartDTO struct {
	Part         int64  `json:"part"`
	SupplierName string `json:"supplier_name"`
}

type manufacturerPartDTO struct {
	Part             int64  `json:"part"`
	ManufacturerName string `json:"manufacturer_name"`
}
