package prediction

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeScript creates a shell script in dir that stands in for the ML script.
// The runner invokes it as: sh <script> <command> <payload>.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body+"\n"), 0o755))
	return name
}

func newShellRunner(t *testing.T, dir string, timeout time.Duration) *Runner {
	t.Helper()
	return NewRunner(Options{
		Interpreter:    "/bin/sh",
		ScriptDir:      dir,
		DefaultScript:  "echo.sh",
		Timeout:        timeout,
		MaxConcurrency: 4,
	})
}

func TestRunner_PayloadNormalization(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "echo.sh", `printf '%s' "$2"`)
	runner := newShellRunner(t, dir, 5*time.Second)

	tests := []struct {
		name     string
		command  string
		payload  any
		expected any
	}{
		{
			name:     "object payload passes through",
			command:  "predict_risk",
			payload:  map[string]any{"age": 42, "region": "north"},
			expected: map[string]any{"age": json.Number("42"), "region": "north"},
		},
		{
			name:     "scalar wrapped for bed command",
			command:  "predict_bed",
			payload:  87,
			expected: map[string]any{"occupancy": json.Number("87")},
		},
		{
			name:     "string wrapped for eta command",
			command:  "predict_eta",
			payload:  "Hampankatta",
			expected: map[string]any{"location": "Hampankatta"},
		},
		{
			name:     "array wrapped under value",
			command:  "predict_forecast",
			payload:  []int{1, 2, 3},
			expected: map[string]any{"value": []any{json.Number("1"), json.Number("2"), json.Number("3")}},
		},
		{
			name:     "null wrapped under value",
			command:  "predict_cluster",
			payload:  nil,
			expected: map[string]any{"value": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := runner.Run(context.Background(), Request{Command: tt.command, Payload: tt.payload})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRunner_ResultIsReturnedUnmodified(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "severity.sh", `printf '{"severity_level":"Critical","severity_score":92.50,"command":"%s"}' "$1"`)
	runner := newShellRunner(t, dir, 5*time.Second)

	result, err := runner.Run(context.Background(), Request{
		Command: "predict_sos_severity",
		Payload: map[string]any{"message": "chest pain"},
		Script:  "severity.sh",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"severity_level": "Critical",
		"severity_score": json.Number("92.50"),
		"command":        "predict_sos_severity",
	}, result)
}

func TestRunner_EmptyOutputIsEmptyObject(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "silent.sh", `printf '  \n\t'`)
	runner := newShellRunner(t, dir, 5*time.Second)

	result, err := runner.Run(context.Background(), Request{Command: "predict_policy", Script: "silent.sh"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, result)
}

func TestRunner_WorkingDirectoryIsScriptDir(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "cwd.sh", `printf '{"cwd":"%s"}' "$(pwd)"`)
	runner := newShellRunner(t, dir, 5*time.Second)

	result, err := runner.Run(context.Background(), Request{Command: "predict_risk", Script: "cwd.sh"})
	require.NoError(t, err)

	expected, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(result.(map[string]any)["cwd"].(string))
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestRunner_ExecutionFailure(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "crash.sh", `echo "model file missing" >&2; exit 3`)
	writeScript(t, dir, "stdout_only.sh", `echo '{"partial":true}'; exit 1`)

	core, logs := observer.New(zap.WarnLevel)
	runner := NewRunner(Options{
		Interpreter: "/bin/sh",
		ScriptDir:   dir,
		Timeout:     5 * time.Second,
		Logger:      zap.New(core),
	})

	t.Run("stderr becomes the detail", func(t *testing.T) {
		result, err := runner.Run(context.Background(), Request{Command: "predict_anomaly", Script: "crash.sh"})
		require.Error(t, err)
		assert.Nil(t, result)

		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindExecutionFailure, pe.Kind)
		assert.Equal(t, "predict_anomaly", pe.Command)
		assert.Equal(t, "model file missing", pe.Detail)

		stderrLogs := logs.FilterMessage("prediction stderr").All()
		require.NotEmpty(t, stderrLogs)
		assert.Equal(t, "model file missing", stderrLogs[0].ContextMap()["output"])
	})

	t.Run("stdout is the detail when stderr is empty", func(t *testing.T) {
		_, err := runner.Run(context.Background(), Request{Command: "predict_anomaly", Script: "stdout_only.sh"})
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindExecutionFailure, pe.Kind)
		assert.Equal(t, `{"partial":true}`, pe.Detail)
	})

	t.Run("missing interpreter", func(t *testing.T) {
		broken := NewRunner(Options{Interpreter: filepath.Join(dir, "no-such-python"), ScriptDir: dir})
		_, err := broken.Run(context.Background(), Request{Command: "predict_risk", Script: "crash.sh"})
		assert.Equal(t, KindExecutionFailure, KindOf(err))
	})
}

func TestRunner_MalformedResponse(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "garbage.sh", `echo "Loading model..."`)
	writeScript(t, dir, "trailing.sh", `echo '{"a":1} {"b":2}'`)
	runner := newShellRunner(t, dir, 5*time.Second)

	for _, script := range []string{"garbage.sh", "trailing.sh"} {
		t.Run(script, func(t *testing.T) {
			_, err := runner.Run(context.Background(), Request{Command: "predict_compat", Script: script})
			var pe *Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, KindMalformedResponse, pe.Kind)
			assert.NotEmpty(t, pe.Detail)
		})
	}
}

func TestRunner_TimeoutKillsProcess(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hang.sh", `exec sleep 5`)
	runner := newShellRunner(t, dir, 200*time.Millisecond)

	start := time.Now()
	_, err := runner.Run(context.Background(), Request{Command: "predict_outbreak", Script: "hang.sh"})

	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunner_CallerCancellation(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hang.sh", `exec sleep 5`)
	runner := newShellRunner(t, dir, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := runner.Run(ctx, Request{Command: "predict_outbreak", Script: "hang.sh"})
	assert.Equal(t, KindCanceled, KindOf(err))
}

func TestRunner_RejectsBeforeSpawning(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "spawned")
	writeScript(t, dir, "touch.sh", `touch spawned; echo '{}'`)
	runner := NewRunner(Options{
		Interpreter:    "/bin/sh",
		ScriptDir:      dir,
		DefaultScript:  "touch.sh",
		Timeout:        5 * time.Second,
		MaxConcurrency: 1,
	})

	t.Run("empty command", func(t *testing.T) {
		_, err := runner.Run(context.Background(), Request{Command: "  "})
		assert.Equal(t, KindInvalidRequest, KindOf(err))
	})

	t.Run("script outside the script directory", func(t *testing.T) {
		_, err := runner.Run(context.Background(), Request{Command: "predict_risk", Script: "../touch.sh"})
		assert.Equal(t, KindInvalidRequest, KindOf(err))
	})

	t.Run("unencodable payload", func(t *testing.T) {
		_, err := runner.Run(context.Background(), Request{Command: "predict_risk", Payload: make(chan int)})
		assert.Equal(t, KindInvalidRequest, KindOf(err))
	})

	t.Run("no free slot before the caller gives up", func(t *testing.T) {
		require.NoError(t, runner.sem.Acquire(context.Background(), 1))
		defer runner.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := runner.Run(ctx, Request{Command: "predict_risk"})
		assert.Equal(t, KindCanceled, KindOf(err))
	})

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "no process should have been spawned")
}

func TestRunner_ConcurrentCallsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "echo.sh", `printf '%s' "$2"`)
	runner := newShellRunner(t, dir, 5*time.Second)

	const calls = 12
	results := make([]any, calls)
	errs := make([]error, calls)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = runner.Run(context.Background(), Request{Command: "predict_bed", Payload: i})
		}(i)
	}
	wg.Wait()

	for i := 0; i < calls; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, map[string]any{"occupancy": json.Number(itoa(i))}, results[i])
	}
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
