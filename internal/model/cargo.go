package model

// CargoType is a catalog entry. Name is unique; Price is in ZMW.
type CargoType struct {
	ID    uint64  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
