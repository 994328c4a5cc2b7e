package receipt

// Item is a single purchased line on a receipt.
type Item struct {
	ShortDescription string `json:"shortDescription" validate:"required"`
	Price            string `json:"price" validate:"required"`
}

// Receipt is the scanned purchase record submitted for scoring. Amounts,
// dates and times stay textual; the calculator parses them per rule.
type Receipt struct {
	Retailer     string `json:"retailer" validate:"required"`
	PurchaseDate string `json:"purchaseDate" validate:"required"`
	PurchaseTime string `json:"purchaseTime" validate:"required"`
	Items        []Item `json:"items" validate:"required,dive"`
	Total        string `json:"total" validate:"required"`
}
