package records

import (
	"context"
	"fmt"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandVersionHistory = "ConsultarHistoricoVersaoPontoServico"
	CommandStructureItems = "ConsultarItensEstruturaPontoServico"

	structureItemsKey = "ITEM_ESTRUTURA_PS"
)

type History struct {
	caller ports.Caller
}

func NewHistory(caller ports.Caller) *History {
	return &History{caller: caller}
}

// Versions lists the structure versions of a service point, oldest first.
func (h *History) Versions(ctx context.Context, id domain.ServicePointID) ([]Record, error) {
	return export(ctx, h.caller, CommandVersionHistory, envelope.Fields{
		"CMD_ID_PONTO_SERVICO": int64(id),
	}, "VERSOES", "VERSAO")
}

// Structure returns the XML document describing one structure version.
func (h *History) Structure(ctx context.Context, structureID int64) (string, error) {
	resp, err := h.caller.Call(ctx, CommandStructureItems, envelope.Fields{
		"CMD_ID_ESTRUTURA_PS": structureID,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", CommandStructureItems, err)
	}

	raw, ok := resp.Field(structureItemsKey)
	if !ok {
		return "", fmt.Errorf("%s: %w: %s", CommandStructureItems, domain.ErrMissingPayload, structureItemsKey)
	}
	document, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w: %s is not text", CommandStructureItems, domain.ErrMissingPayload, structureItemsKey)
	}
	return document, nil
}
