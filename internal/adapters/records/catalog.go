package records

import (
	"context"

	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandAttributes      = "ConsultarAtributos"
	CommandTeams           = "ConsultarEquipes"
	CommandOccurrenceTypes = "ConsultarTipoOcorrencia"

	AttributeNameKey             = "NOME"
	AttributeIDKey               = "ID_ATRIBUTO"
	TeamDescriptionKey           = "DESC_EQUIPE"
	OccurrenceTypeDescriptionKey = "DESC_TIPO_OCORRENCIA"
)

type catalogState int

const (
	catalogUnloaded catalogState = iota
	catalogLoaded
)

// Catalog is a reference list fetched once and kept until Refresh.
type Catalog struct {
	caller     ports.Caller
	command    string
	fields     envelope.Fields
	collection string
	item       string
	key        string

	state   catalogState
	records []Record
}

func newCatalog(caller ports.Caller, command string, fields envelope.Fields, collection, item, key string) *Catalog {
	return &Catalog{
		caller:     caller,
		command:    command,
		fields:     fields,
		collection: collection,
		item:       item,
		key:        key,
	}
}

func NewAttributes(caller ports.Caller) *Catalog {
	return newCatalog(caller, CommandAttributes, nil, "ATRIBUTOS", "ATRIBUTO", AttributeNameKey)
}

func NewTeams(caller ports.Caller) *Catalog {
	return newCatalog(caller, CommandTeams, envelope.Fields{
		"CMD_ATIVO":           1,
		"CMD_IS_RELATORIO":    0,
		"CMD_MOSTRAR_MEMBROS": 1,
	}, "EQUIPES", "EQUIPE", TeamDescriptionKey)
}

func NewOccurrenceTypes(caller ports.Caller) *Catalog {
	return newCatalog(caller, CommandOccurrenceTypes, envelope.Fields{
		fieldParkID: defaultPark,
	}, "TIPOS_OCORRENCIA", "TIPO_OCORRENCIA", OccurrenceTypeDescriptionKey)
}

func (c *Catalog) Command() string {
	return c.command
}

// Records returns the cached list, fetching it on first use.
func (c *Catalog) Records(ctx context.Context) ([]Record, error) {
	if c.state == catalogLoaded {
		return c.records, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the list again. A failed refresh keeps the previous list.
func (c *Catalog) Refresh(ctx context.Context) ([]Record, error) {
	records, err := export(ctx, c.caller, c.command, c.fields, c.collection, c.item)
	if err != nil {
		return nil, err
	}

	c.records = records
	c.state = catalogLoaded
	return c.records, nil
}

// Index keys the records by key, or by the catalog's natural key when key is
// empty.
func (c *Catalog) Index(ctx context.Context, key string) (map[string]Record, error) {
	records, err := c.Records(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = c.key
	}
	return IndexBy(records, key), nil
}
