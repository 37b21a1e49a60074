package models

// Carrier-shaped webhook payloads. Field names follow what the carrier
// actually posts, PascalCase and all.

type ScanPush struct {
	Shipment ScanShipment `json:"Shipment"`
}

type ScanShipment struct {
	AWB         string     `json:"AWB"`
	ReferenceNo string     `json:"ReferenceNo,omitempty"`
	Status      ScanStatus `json:"Status"`
	NSLCode     string     `json:"NSLCode,omitempty"`
	Sortcode    string     `json:"Sortcode,omitempty"`
	PickUpDate  string     `json:"PickUpDate,omitempty"`
}

type ScanStatus struct {
	Status         string `json:"Status"`
	StatusType     string `json:"StatusType,omitempty"`
	StatusDateTime string `json:"StatusDateTime"`
	StatusLocation string `json:"StatusLocation,omitempty"`
	Instructions   string `json:"Instructions,omitempty"`
}

type EPODPush struct {
	Waybill string `json:"waybill"`
	EPOD    string `json:"EPOD"`
	OrderID string `json:"orderID,omitempty"`
}

type SorterImagePush struct {
	Waybill      string `json:"Waybill"`
	WeightImages string `json:"Weight_images"`
	Doc          string `json:"doc,omitempty"`
}

type QCImagePush struct {
	WaybillID string `json:"waybillId"`
	Image     string `json:"Image"`
	ReturnID  string `json:"returnId,omitempty"`
}
