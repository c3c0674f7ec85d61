package handler

import (
	"fmt"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// Canned data volumes per dataset. Deterministic so the client and its tests
// can assert exact totals.
var datasetSizes = map[domain.Source]int{
	domain.SourceShipments: 437,
	domain.SourceOrders:    152,
	domain.SourceReturns:   64,
	domain.SourceReceiving: 91,
	domain.SourceStorage:   28,
	domain.SourceCredits:   45,
	domain.SourceServices:  73,
}

var carriers = []string{"UPS", "FedEx", "USPS", "DHL", "OnTrac"}

var shipmentStatuses = []string{"delivered", "in_transit", "label_created", "exception"}

// Dataset serves deterministic back-office rows for the dev server.
type Dataset struct{}

// NewDataset creates the canned dataset provider.
func NewDataset() *Dataset {
	return &Dataset{}
}

// Total returns the row count for a source, or an error for unknown sources.
func (d *Dataset) Total(source domain.Source) (int, error) {
	n, ok := datasetSizes[source]
	if !ok {
		return 0, domain.ErrSourceNotFound
	}
	return n, nil
}

// Rows returns rows [offset, offset+limit) for a source.
func (d *Dataset) Rows(source domain.Source, offset, limit int) ([]domain.Record, error) {
	total, err := d.Total(source)
	if err != nil {
		return nil, err
	}
	if offset >= total {
		return []domain.Record{}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	rows := make([]domain.Record, 0, end-offset)
	for i := offset; i < end; i++ {
		rows = append(rows, d.row(source, i))
	}
	return rows, nil
}

// All returns every row for a source.
func (d *Dataset) All(source domain.Source) ([]domain.Record, error) {
	total, err := d.Total(source)
	if err != nil {
		return nil, err
	}
	return d.Rows(source, 0, total)
}

func (d *Dataset) row(source domain.Source, i int) domain.Record {
	switch source {
	case domain.SourceShipments:
		return domain.Record{
			"shipment_id":  fmt.Sprintf("SHP-%05d", i+1),
			"order_number": fmt.Sprintf("ORD-%06d", 310000+i),
			"carrier":      carriers[i%len(carriers)],
			"status":       shipmentStatuses[i%len(shipmentStatuses)],
			"charge_usd":   fmt.Sprintf("%.2f", 4.85+float64(i%40)*0.75),
		}
	case domain.SourceOrders:
		return domain.Record{
			"order_number": fmt.Sprintf("ORD-%06d", 410000+i),
			"sku_count":    1 + i%6,
			"age_days":     i % 14,
			"hold_reason":  []string{"oversold", "address", "payment"}[i%3],
		}
	case domain.SourceReturns:
		return domain.Record{
			"rma_id":       fmt.Sprintf("RMA-%04d", i+1),
			"order_number": fmt.Sprintf("ORD-%06d", 310000+i*3),
			"disposition":  []string{"restock", "inspect", "dispose"}[i%3],
		}
	case domain.SourceReceiving:
		return domain.Record{
			"asn_id":   fmt.Sprintf("ASN-%04d", i+1),
			"supplier": fmt.Sprintf("Supplier %c", 'A'+rune(i%8)),
			"units":    20 + i*7%400,
		}
	case domain.SourceStorage:
		return domain.Record{
			"location":   fmt.Sprintf("BIN-%03d", i+1),
			"cubic_feet": fmt.Sprintf("%.1f", 0.5+float64(i%20)*0.5),
			"fee_usd":    fmt.Sprintf("%.2f", 0.45+float64(i%20)*0.40),
		}
	case domain.SourceCredits:
		return domain.Record{
			"credit_id":  fmt.Sprintf("CR-%04d", i+1),
			"amount_usd": fmt.Sprintf("%.2f", 2.00+float64(i%30)*1.25),
			"reason":     []string{"late_delivery", "damage", "billing_adjustment"}[i%3],
		}
	case domain.SourceServices:
		return domain.Record{
			"service_id": fmt.Sprintf("SVC-%04d", i+1),
			"service":    []string{"kitting", "relabel", "photo", "disposal"}[i%4],
			"fee_usd":    fmt.Sprintf("%.2f", 1.50+float64(i%12)*0.85),
		}
	default:
		return domain.Record{"index": i}
	}
}
