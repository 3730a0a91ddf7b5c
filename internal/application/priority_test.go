package application

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPriorityCacheLooksUpEachTypeOnce(t *testing.T) {
	caller := mocks.NewMockCaller(t)
	cache := NewPriorityCache(caller)

	caller.EXPECT().
		Call(mockAnyContext(), CommandPriorityLookup, envelope.Fields{"CMD_ID_TIPO_OCORRENCIA": int64(7)}).
		Return(envelope.MustDecode(priorityBody("E")), nil).
		Once()

	for range 3 {
		code, err := cache.Lookup(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "E", code)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestPriorityCacheRemembersMisses(t *testing.T) {
	caller := mocks.NewMockCaller(t)
	cache := NewPriorityCache(caller)

	caller.EXPECT().
		Call(mockAnyContext(), CommandPriorityLookup, mock.Anything).
		Return(envelope.MustDecode(`{"RAIZ":{"PRIORIDADES_TIPO_OCORRENCIA":{"PRIORIDADE_TIPO_OCORRENCIA":[]}}}`), nil).
		Once()

	for range 2 {
		_, err := cache.Lookup(context.Background(), 9)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrPriorityNotFound)
	}
}

func TestPriorityCacheDoesNotRememberTransportErrors(t *testing.T) {
	caller := mocks.NewMockCaller(t)
	cache := NewPriorityCache(caller)

	transportErr := errors.Join(domain.ErrTransport, errors.New("connection reset"))
	caller.EXPECT().
		Call(mockAnyContext(), CommandPriorityLookup, mock.Anything).
		Return(nil, transportErr).
		Once()
	caller.EXPECT().
		Call(mockAnyContext(), CommandPriorityLookup, mock.Anything).
		Return(envelope.MustDecode(priorityBody("N")), nil).
		Once()

	_, err := cache.Lookup(context.Background(), 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Zero(t, cache.Len())

	code, err := cache.Lookup(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "N", code)
}

func TestPriorityCodeReadsFirstEntry(t *testing.T) {
	t.Parallel()

	resp := envelope.MustDecode(`{"RAIZ":{"PRIORIDADES_TIPO_OCORRENCIA":{"PRIORIDADE_TIPO_OCORRENCIA":[{"SIGLA_PRIORIDADE_PONTO_OCORR":"U"},{"SIGLA_PRIORIDADE_PONTO_OCORR":"N"}]}}}`)
	code, err := priorityCode(resp)
	require.NoError(t, err)
	assert.Equal(t, "U", code)

	single := envelope.MustDecode(`{"RAIZ":{"PRIORIDADES_TIPO_OCORRENCIA":{"PRIORIDADE_TIPO_OCORRENCIA":{"SIGLA_PRIORIDADE_PONTO_OCORR":"E"}}}}`)
	code, err = priorityCode(single)
	require.NoError(t, err)
	assert.Equal(t, "E", code)
}

func mockAnyContext() interface{} {
	return mock.MatchedBy(func(context.Context) bool { return true })
}
