package records

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/logger"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandServicePoints = "ConsultarPontosServicos"

	ServicePointIDKey = "ID_PONTO_SERVICO"
	latitudeKey       = "LATITUDE_TOTAL"
	longitudeKey      = "LONGITUDE_TOTAL"
)

// ServicePointQuery narrows a service point export. Filters uses the
// backend's attribute filter syntax, e.g. "377;4;Jabotiana|394;0;407".
type ServicePointQuery struct {
	AttributeIDs []string
	ItemID       string
	Filters      string
}

type ServicePoints struct {
	caller     ports.Caller
	attributes *Catalog
	logger     *slog.Logger
}

func NewServicePoints(caller ports.Caller, attributes *Catalog, log *slog.Logger) *ServicePoints {
	if attributes == nil {
		attributes = NewAttributes(caller)
	}
	if log == nil {
		log = logger.Discard()
	}

	return &ServicePoints{
		caller:     caller,
		attributes: attributes,
		logger:     log.With("component", "records.service_points"),
	}
}

func (s *ServicePoints) Export(ctx context.Context, query ServicePointQuery) ([]Record, error) {
	return export(ctx, s.caller, CommandServicePoints, envelope.Fields{
		fieldParkIDs:               defaultPark,
		"CMD_SEM_PAGINACAO":        0,
		"CMD_ID_ITEM":              query.ItemID,
		"CMD_ATRIBUTOS_EXPORTACAO": strings.Join(query.AttributeIDs, ","),
		"CMD_FILTRO_ATRIBUTOS":     query.Filters,
	}, "PONTOS_SERVICOS", "PONTO_SERVICO")
}

// ExportByNames resolves attribute names through the attribute catalog.
// Unknown names are logged and left out of the export.
func (s *ServicePoints) ExportByNames(ctx context.Context, names []string, filters string) ([]Record, error) {
	byName, err := s.attributes.Index(ctx, AttributeNameKey)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		attribute, ok := byName[name]
		if !ok {
			s.logger.Warn("attribute not in catalog", "name", name)
			continue
		}
		id, ok := envelope.String(attribute[AttributeIDKey])
		if !ok {
			s.logger.Warn("attribute without id", "name", name)
			continue
		}
		ids = append(ids, id)
	}

	return s.Export(ctx, ServicePointQuery{AttributeIDs: ids, Filters: filters})
}

// ServicePointFromRecord reads the identity and coordinates of a service
// point record.
func ServicePointFromRecord(record Record) (domain.ServicePoint, bool) {
	id, ok := envelope.Int64(record[ServicePointIDKey])
	if !ok {
		return domain.ServicePoint{}, false
	}

	point := domain.ServicePoint{ID: domain.ServicePointID(id)}
	point.Latitude, _ = envelope.Float64(record[latitudeKey])
	point.Longitude, _ = envelope.Float64(record[longitudeKey])
	return point, true
}
