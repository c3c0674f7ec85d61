package domain

// Source identifies a back-office dataset that can be exported.
type Source string

const (
	SourceShipments Source = "shipments"
	SourceOrders    Source = "unfulfilled-orders"
	SourceReturns   Source = "returns"
	SourceReceiving Source = "receiving"
	SourceStorage   Source = "storage"
	SourceCredits   Source = "credits"
	SourceServices  Source = "additional-services"
)

// String returns the string representation of the Source.
func (s Source) String() string {
	return string(s)
}

// Sources lists every exportable dataset in display order.
func Sources() []Source {
	return []Source{
		SourceShipments,
		SourceOrders,
		SourceReturns,
		SourceReceiving,
		SourceStorage,
		SourceCredits,
		SourceServices,
	}
}

// Label returns the tab title shown for the source.
func (s Source) Label() string {
	switch s {
	case SourceShipments:
		return "Shipments"
	case SourceOrders:
		return "Unfulfilled Orders"
	case SourceReturns:
		return "Returns"
	case SourceReceiving:
		return "Receiving"
	case SourceStorage:
		return "Storage"
	case SourceCredits:
		return "Credits"
	case SourceServices:
		return "Additional Services"
	default:
		return string(s)
	}
}

// Record is one row of a listing endpoint response. Column sets differ per
// source, so rows stay schemaless until the export writer flattens them.
type Record map[string]any
