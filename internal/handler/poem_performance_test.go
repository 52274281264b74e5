package handler_test

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

func TestPoemListP95LatencyBelow250ms(t *testing.T) {
	if testing.Short() {
		t.Skip("latency check skipped in short mode")
	}

	gemini := &providerStub{id: ai.ProviderGemini, raw: `{"score": 55, "emotion": "growth", "tags": ["seed"]}`}
	app := newPoemTestApp(t, gemini)

	for i := 0; i < 60; i++ {
		body := fmt.Sprintf("verse %d %s", i, strings.Repeat("leaf ", i%7+1))
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/poems", dto.PoemRequest{Poem: body}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	runs := 40
	durations := make([]time.Duration, 0, runs)

	for i := 0; i < runs; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/poems?q=leaf&tag=seed", nil)
		start := time.Now()
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	index := int(math.Ceil(0.95*float64(len(durations)))) - 1
	if index < 0 {
		index = 0
	}
	p95 := durations[index]

	require.LessOrEqual(t, p95, 250*time.Millisecond)
}
