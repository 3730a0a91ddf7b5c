package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	batch := writeBatchFixture(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseForm()) {
			return
		}
		switch r.PostForm.Get("CMD_COMMAND") {
		case "Login":
			_, _ = fmt.Fprint(w, `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"AUTH_TOKEN":"smoke-token"}}`)
		case "ConsultarPrioridadeTipoOcorrencia":
			_, _ = fmt.Fprint(w, `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":[]},"PRIORIDADES_TIPO_OCORRENCIA":{"PRIORIDADE_TIPO_OCORRENCIA":{"SIGLA_PRIORIDADE_PONTO_OCORR":"U"}}}}`)
		case "SalvarSolicitacaoPontoServico":
			_, _ = fmt.Fprint(w, `{"RAIZ":{"MESSAGES":{"INFORMATIONS":["Ocorrência criada"],"ERRORS":[]}}}`)
		default:
			_, _ = fmt.Fprint(w, `{"RAIZ":{"MESSAGES":{"INFORMATIONS":[],"ERRORS":["comando desconhecido"]}}}`)
		}
	}))
	defer backend.Close()

	_, stderr, err := runEx(t, binaryPath, home, backend.URL,
		"auth", "set", "--credentials", "operador:segredo",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runEx(t, binaryPath, home, backend.URL, "occurrence", "save", "--batch", batch, "--json")
	require.NoError(t, err, "stderr: %s", stderr)

	var result struct {
		OK  int
		NOK int
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, 1, result.OK)
	assert.Zero(t, result.NOK)

	written, err := os.ReadFile(batch)
	require.NoError(t, err)
	assert.Regexp(t, `outcome = ['"]OK['"]`, string(written))
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "ex-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/ex")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build ex binary: %s", string(output))
	return binaryPath
}

func runEx(t *testing.T, binaryPath, home, backendURL string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(withoutExatiEnv(os.Environ()),
		"HOME="+home,
		"PATH="+t.TempDir(),
		"EXATI_URL="+backendURL,
		"EXATI_LOG_LEVEL=error",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func withoutExatiEnv(env []string) []string {
	kept := make([]string, 0, len(env))
	for _, entry := range env {
		if strings.HasPrefix(entry, "EXATI_") || strings.HasPrefix(entry, "PATH=") {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeBatchFixture(t *testing.T) string {
	t.Helper()

	batch := `version = 1

[[occurrences]]
service_point_id = 1001
origin_type_id = 3
occurrence_type_id = 7
complaint_date = "18/10/2026"
complaint_time = "08:30"
`

	path := filepath.Join(t.TempDir(), "batch.toml")
	require.NoError(t, os.WriteFile(path, []byte(batch), 0o600))
	return path
}
