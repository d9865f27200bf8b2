package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchAll_ExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><script>var x=1;</script></head>
			<body><nav>menu</nav><p>pH should stay between 6.5 and 8.5.</p><footer>legal</footer></body></html>`))
	}))
	defer srv.Close()

	text := NewGuidelineFetcher().FetchAll(context.Background(), []string{srv.URL})
	assert.Contains(t, text, "pH should stay between 6.5 and 8.5.")
	assert.NotContains(t, text, "var x=1")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "legal")
}

func TestFetchAll_SkipsFailingPages(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>turbidity below 5 NTU</body></html>`))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	text := NewGuidelineFetcher().FetchAll(context.Background(), []string{bad.URL, good.URL})
	assert.Contains(t, text, "turbidity below 5 NTU")
}

func TestFetchAll_EmptyOnNoSources(t *testing.T) {
	assert.Empty(t, NewGuidelineFetcher().FetchAll(context.Background(), nil))
}
