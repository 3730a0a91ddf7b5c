package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tomlrepo "github.com/bnema/exati-cli/internal/adapters/repo/toml"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCredentials = "operador:segredo"
	testToken       = "token-1"
	emptyMessages   = `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]}}}`
)

func TestVersionPrintsVersion(t *testing.T) {
	backend := newFakeBackend(t, nil)

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestUnknownCommand(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, _, err := executeCLI(t, backend, t.TempDir(), "account")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command \"account\"")
}

func TestAuthSetRequiresCredentialsFlag(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, _, err := executeCLI(t, backend, t.TempDir(), "auth", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"credentials\" not set")
}

func TestAuthSetThenCheckUsesStoredCredentials(t *testing.T) {
	backend := newFakeBackend(t, nil)
	backend.configuredCredentials = ""
	home := t.TempDir()

	_, _, err := executeCLI(t, backend, home, "auth", "set", "--credentials", testCredentials)
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(home, ".config", "exati", "secrets", "exati", "credentials"))
	require.NoError(t, err)
	assert.Equal(t, testCredentials, strings.TrimSpace(string(stored)))

	stdout, _, err := executeCLI(t, backend, home, "auth", "check")
	require.NoError(t, err)
	assert.Equal(t, "authenticated\n", stdout)
	assert.Equal(t, 1, backend.loginCount())
}

func TestAuthCheckWithoutCredentials(t *testing.T) {
	backend := newFakeBackend(t, nil)
	backend.configuredCredentials = ""

	_, _, err := executeCLI(t, backend, t.TempDir(), "auth", "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCredentialsNotFound)
	assert.Zero(t, backend.loginCount())
}

func TestAuthRemoveDropsStoredCredentials(t *testing.T) {
	backend := newFakeBackend(t, nil)
	backend.configuredCredentials = ""
	home := t.TempDir()

	_, _, err := executeCLI(t, backend, home, "auth", "set", "--credentials", testCredentials)
	require.NoError(t, err)
	_, _, err = executeCLI(t, backend, home, "auth", "remove")
	require.NoError(t, err)

	_, _, err = executeCLI(t, backend, home, "auth", "check")
	assert.ErrorIs(t, err, domain.ErrCredentialsNotFound)
}

func TestAuthCheckRejectedLogin(t *testing.T) {
	backend := newFakeBackend(t, nil)
	backend.configuredCredentials = "operador:errado"

	_, _, err := executeCLI(t, backend, t.TempDir(), "auth", "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Contains(t, err.Error(), "Usuário ou senha inválidos")
	assert.Equal(t, 4, backend.loginCount())
}

func TestAuthCheckUnreachableBackend(t *testing.T) {
	backend := newFakeBackend(t, nil)
	backend.server.Close()

	_, _, err := executeCLI(t, backend, t.TempDir(), "auth", "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestOccurrenceSaveWritesOutcomesBack(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarPrioridadeTipoOcorrencia": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"PRIORIDADES_TIPO_OCORRENCIA":{"PRIORIDADE_TIPO_OCORRENCIA":[{"SIGLA_PRIORIDADE_PONTO_OCORR":"U"}]}}}`,
		"SalvarSolicitacaoPontoServico":     `{"RAIZ":{"MESSAGES":{"INFORMATIONS":["Ocorrência 981 criada"],"ERRORS":[]}}}`,
	})
	batch := writeBatchFixture(t, saveBatch)

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "occurrence", "save", "--batch", batch, "--json")
	require.NoError(t, err)

	var result struct {
		Operation string
		OK        int
		NOK       int
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "save", result.Operation)
	assert.Equal(t, 1, result.OK)
	assert.Equal(t, 1, result.NOK)

	saved, err := tomlrepo.NewBatchRepository(batch).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, domain.OutcomeOK, saved[0].Outcome)
	assert.Equal(t, "Ocorrência 981 criada", saved[0].Message)
	assert.Equal(t, "U", saved[0].Priority)
	assert.Equal(t, domain.OutcomeNOK, saved[1].Outcome)
	assert.Equal(t, domain.MessageMissingComplaint, saved[1].Message)

	form := backend.lastForm("SalvarSolicitacaoPontoServico")
	assert.Equal(t, "1001", form.Get("CMD_ID_PONTO_SERVICO"))
	assert.Equal(t, "U", form.Get("CMD_SIGLA_PRIORIDADE_PONTO_OCORR"))
}

func TestOccurrenceSaveRendersTable(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarPrioridadeTipoOcorrencia": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"PRIORIDADES_TIPO_OCORRENCIA":{"PRIORIDADE_TIPO_OCORRENCIA":{"SIGLA_PRIORIDADE_PONTO_OCORR":"N"}}}}`,
		"SalvarSolicitacaoPontoServico":     `{"RAIZ":{"MESSAGES":{"INFORMATIONS":["Ocorrência criada"],"ERRORS":[]}}}`,
	})
	batch := writeBatchFixture(t, saveBatch)

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "occurrence", "save", "--batch", batch)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Occurrence batch: save")
	assert.Contains(t, stdout, "occurrences: 2  ok: 1  nok: 1  pending: 0")
	assert.Contains(t, stdout, "1001")
}

func TestOccurrenceSaveDryRunSkipsBackend(t *testing.T) {
	backend := newFakeBackend(t, nil)
	batch := writeBatchFixture(t, saveBatch)
	before, err := os.ReadFile(batch)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "occurrence", "save", "--batch", batch, "--dry-run", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, domain.MessageMissingComplaint)
	assert.Zero(t, backend.loginCount())

	after, err := os.ReadFile(batch)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOccurrenceDeleteCSV(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarDetalhesSolicitacao":         `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"SOLICITACAO":{"ID_SOLICITACAO":55,"POSSUI_ATENDIMENTO_ANTERIOR":0}}}`,
		"ConsultarPontosServicoOcorrenciaNovo": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"PONTOS_SERVICOS_OCORRENCIA":{"PONTO_SERVICO_OCORRENCIA":[{"ID_PONTO_SERVICO":1001}]}}}`,
		"ExcluirSolicitacao":                   `{"RAIZ":{"MESSAGES":{"INFORMATIONS":["Solicitação excluída"],"ERRORS":[]}}}`,
	})
	batch := writeBatchFixture(t, `
[[occurrences]]
service_point_id = 1001
request_ids = [55]
occurrence_id = 300
`)

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "occurrence", "delete", "--batch", batch, "--csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "RESULTADO", rows[0][14])
	assert.Equal(t, "OK", rows[1][14])
	assert.Equal(t, "Solicitação excluída", rows[1][15])
	assert.Equal(t, []string{
		"Login",
		"ConsultarDetalhesSolicitacao",
		"ConsultarPontosServicoOcorrenciaNovo",
		"CancelarElaboracaoSolicitacao",
		"ExcluirSolicitacao",
	}, backend.commandLog())
}

func TestOccurrenceRejectsJSONWithCSV(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, _, err := executeCLI(t, backend, t.TempDir(), "occurrence", "save", "--batch", "x.toml", "--json", "--csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestOccurrenceMissingBatchFile(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, _, err := executeCLI(t, backend, t.TempDir(), "occurrence", "delete", "--batch", filepath.Join(t.TempDir(), "missing.toml"), "--json")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}

func TestExportAttributesCSV(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarAtributos": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"ATRIBUTOS":{"ATRIBUTO":[{"ID_ATRIBUTO":377,"NOME":"Bairro"},{"ID_ATRIBUTO":394,"NOME":"Tipo de lâmpada"}]}}}`,
	})

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "export", "attributes", "--csv")
	require.NoError(t, err)
	assert.Equal(t, "ID_ATRIBUTO,NOME\n377,Bairro\n394,Tipo de lâmpada\n", stdout)
}

func TestExportReportsAppliesFilters(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarLaudo": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"LAUDOS":{"LAUDO":[{"ID_LAUDO":7,"DESC_EQUIPE":"Equipe A"},{"ID_LAUDO":8,"DESC_EQUIPE":"Equipe B"}]}}}`,
	})

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "export", "reports", "--since", "01/10/2026", "--filter", "DESC_EQUIPE=Equipe B")
	require.NoError(t, err)

	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.Len(t, list, 1)
	assert.EqualValues(t, 8, list[0]["ID_LAUDO"])
	assert.Equal(t, "01/10/2026", backend.lastForm("ConsultarLaudo").Get("CMD_DATA_CRIACAO_INICIAL"))
}

func TestExportReportsSummaryCSV(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarLaudo": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"LAUDOS":{"LAUDO":[{"DATA":"03/10/2026","ID_LAUDO":7,"DESC_LAUDO":"Ronda noturna","ID_TIPO_LAUDO":2,"DESC_TIPO_LAUDO":"Ronda","ID_EQUIPE":11,"DESC_EQUIPE":"Equipe A","NUM_AMOSTRAS":40,"AVALIADAS":38,"EXTRA":"x"}]}}}`,
	})

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "export", "reports", "--since", "01/10/2026", "--summary", "--csv")
	require.NoError(t, err)
	assert.Equal(t, "date,report_id,description,type_id,type,team_id,team,samples,evaluated\n03/10/2026,7,Ronda noturna,2,Ronda,11,Equipe A,40,38\n", stdout)
}

func TestExportServicePointCoordinatesSkipsRecordsWithoutID(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarPontosServicos": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"PONTOS_SERVICOS":{"PONTO_SERVICO":[{"ID_PONTO_SERVICO":68582,"LATITUDE_TOTAL":-10.9472,"LONGITUDE_TOTAL":-37.0731},{"LATITUDE_TOTAL":1}]}}}`,
	})

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "export", "service-points", "--item", "68582", "--coordinates", "--csv")
	require.NoError(t, err)
	assert.Equal(t, "service_point_id,latitude,longitude\n68582,-10.9472,-37.0731\n", stdout)
	assert.Equal(t, "68582", backend.lastForm("ConsultarPontosServicos").Get("CMD_ID_ITEM"))
}

func TestExportRejectsInvalidFlags(t *testing.T) {
	backend := newFakeBackend(t, nil)

	_, _, err := executeCLI(t, backend, t.TempDir(), "export", "reports", "--since", "2026-10-01")
	assert.ErrorContains(t, err, "--since must be a dd/mm/yyyy date")

	_, _, err = executeCLI(t, backend, t.TempDir(), "export", "reports", "--filter", "novalue")
	assert.ErrorContains(t, err, "--filter must be KEY=V1,V2")

	_, _, err = executeCLI(t, backend, t.TempDir(), "export", "service-status", "--status", "late")
	assert.ErrorContains(t, err, `unsupported status "late"`)

	assert.Zero(t, backend.loginCount())
}

func TestExportReportOccurrencesWritesBatch(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarStatusAtendimentoPontoServico": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"PONTOS_STATUS_ATENDIMENTO":{"PONTO_STATUS_ATENDIMENTO":[
			{"ID_OCORRENCIA":7,"ID_PONTO_SERVICO":501,"DESC_TIPO_OCORRENCIA":"Lâmpada apagada"}
		]}}}`,
		"ConsultarAmostraLaudo": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"AMOSTRAS_LAUDO":{"AMOSTRA_LAUDO":[
			{"POSSUI_OCORRENCIA":1,"ID_OCORRENCIA":"12, 7"},
			{"POSSUI_OCORRENCIA":0,"ID_OCORRENCIA":"99"}
		]}}}`,
	})
	batch := filepath.Join(t.TempDir(), "resolved.toml")

	stdout, _, err := executeCLI(t, backend, t.TempDir(),
		"export", "report-occurrences", "--report", "44", "--from", "01/09/2026", "--to", "19/10/2026", "--batch", batch)
	require.NoError(t, err)

	var occurrences []domain.Occurrence
	require.NoError(t, json.Unmarshal([]byte(stdout), &occurrences))
	require.Len(t, occurrences, 2)
	assert.Equal(t, domain.Occurrence{OccurrenceID: 12}, occurrences[0])
	assert.Equal(t, domain.ServicePointID(501), occurrences[1].ServicePointID)

	saved, err := tomlrepo.NewBatchRepository(batch).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, occurrences, saved)

	form := backend.lastForm("ConsultarStatusAtendimentoPontoServico")
	assert.Equal(t, "01/09/2026", form.Get("CMD_DATA_INICIO"))
	assert.Equal(t, "-1", form.Get("CMD_STATUS"))
	assert.Equal(t, "44", backend.lastForm("ConsultarAmostraLaudo").Get("CMD_ID_LAUDO"))
}

func TestExportServiceHistoryLatestFallsBack(t *testing.T) {
	backend := newFakeBackend(t, nil)

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "export", "service-history", "--point", "68582", "--latest")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"Status": "Pendente"`)
	assert.Contains(t, stdout, "2021-07-01")
}

func TestExportStructurePrintsDocument(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarItensEstruturaPontoServico": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"ITEM_ESTRUTURA_PS":"<ESTRUTURA/>"}}`,
	})

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "export", "structure", "--id", "11")
	require.NoError(t, err)
	assert.Equal(t, "<ESTRUTURA/>\n", stdout)
}

func TestObservationSet(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"AtualizarObsPontoOcorrencia": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":["Observação atualizada"],"ERRORS":[]}}}`,
	})

	stdout, _, err := executeCLI(t, backend, t.TempDir(), "observation", "set", "--occurrence", "300", "--text", "poste inclinado")
	require.NoError(t, err)
	assert.Equal(t, "OK: Observação atualizada\n", stdout)

	form := backend.lastForm("AtualizarObsPontoOcorrencia")
	assert.Equal(t, "300", form.Get("CMD_ID_OCORRENCIA"))
	assert.Equal(t, "poste inclinado", form.Get("CMD_OBSERVACOES"))
}

func TestObservationReopen(t *testing.T) {
	backend := newFakeBackend(t, map[string]string{
		"ConsultarAtendimentoPorPontoServico": `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"ATENDIMENTOS":{"ATENDIMENTO":[{"DESC_STATUS_ATENDIMENTO_PS":"Realizado","DESC_MOTIVO_ATENDIMENTO_PS":"Troca de reator","DATA_ATENDIMENTO":"17/10/2026"}]}}}`,
		"AtualizarObsPontoOcorrencia":         `{"RAIZ":{"MESSAGES":{"INFORMATIONS":["Observação atualizada"],"ERRORS":[]}}}`,
	})

	_, _, err := executeCLI(t, backend, t.TempDir(),
		"observation", "reopen", "--occurrence", "300", "--point", "68582", "--observation", "Reabertura: lâmpada apagada")
	require.NoError(t, err)
	assert.Equal(t, "Realizado Troca de reator: lâmpada apagada", backend.lastForm("AtualizarObsPontoOcorrencia").Get("CMD_OBSERVACOES"))
}

const saveBatch = `
version = 1

[[occurrences]]
service_point_id = 1001
origin_type_id = 3
occurrence_type_id = 7
complaint_date = "18/10/2026"
complaint_time = "08:30"
observation = "poste em frente ao número 12"

[[occurrences]]
service_point_id = 1002
origin_type_id = 3
occurrence_type_id = 7
`

// fakeBackend answers each command with a fixed body after a Basic-auth
// login, and records what it received.
type fakeBackend struct {
	t                     *testing.T
	server                *httptest.Server
	bodies                map[string]string
	configuredCredentials string

	mu       sync.Mutex
	commands []string
	forms    map[string]url.Values
	logins   int
}

func newFakeBackend(t *testing.T, bodies map[string]string) *fakeBackend {
	t.Helper()

	backend := &fakeBackend{
		t:                     t,
		bodies:                bodies,
		configuredCredentials: testCredentials,
		forms:                 map[string]url.Values{},
	}
	backend.server = httptest.NewServer(http.HandlerFunc(backend.handle))
	t.Cleanup(backend.server.Close)
	return backend
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	if !assert.NoError(b.t, r.ParseForm()) {
		return
	}
	command := r.PostForm.Get("CMD_COMMAND")

	b.mu.Lock()
	b.commands = append(b.commands, command)
	b.forms[command] = r.PostForm
	if command == "Login" {
		b.logins++
	}
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if command == "Login" {
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte(testCredentials))
		if r.Header.Get("Authorization") != expected {
			_, _ = fmt.Fprint(w, `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":["Usuário ou senha inválidos"]}}}`)
			return
		}
		_, _ = fmt.Fprintf(w, `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"AUTH_TOKEN":%q}}`, testToken)
		return
	}

	assert.Equal(b.t, testToken, r.Header.Get("Authorization"))
	body, ok := b.bodies[command]
	if !ok {
		body = emptyMessages
	}
	_, _ = fmt.Fprint(w, body)
}

func (b *fakeBackend) loginCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logins
}

func (b *fakeBackend) commandLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.commands...)
}

func (b *fakeBackend) lastForm(command string) url.Values {
	b.t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	form, ok := b.forms[command]
	require.True(b.t, ok, "command %s was not sent", command)
	return form
}

func executeCLI(t *testing.T, backend *fakeBackend, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	// Keep the password-store out of reach so secrets land in the file store.
	t.Setenv("PATH", t.TempDir())
	t.Setenv("EXATI_URL", backend.server.URL+"/WebApi/")
	t.Setenv("EXATI_USER_PASS", backend.configuredCredentials)
	t.Setenv("EXATI_BACKEND_BASE_DELAY", "0s")
	t.Setenv("EXATI_LOG_LEVEL", "error")
	t.Setenv("EXATI_LOG_FORMAT", "text")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeBatchFixture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "batch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
