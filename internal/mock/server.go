package mock

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// URLs are the full addresses of the pages a Server serves.
type URLs struct {
	Index       string
	History     string
	OptionChain string
	LotSize     string
}

// Server is a running fake exchange site.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	market Market
	hits   map[string]int
}

// NewServer starts a fake site for m. Callers must Close it.
func NewServer(m Market) *Server {
	s := &Server{market: m, hits: make(map[string]int)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countHits)
	r.Get(IndexPath, s.handleIndex)
	r.Get(HistoryPath, s.handleHistory)
	r.Get(OptionChainPath, s.handleOptionChain)
	r.Get(LotSizePath, s.handleLotSize)

	s.Server = httptest.NewServer(r)
	return s
}

// URLs returns the page addresses of the running server.
func (s *Server) URLs() URLs {
	return URLs{
		Index:       s.URL + IndexPath,
		History:     s.URL + HistoryPath,
		OptionChain: s.URL + OptionChainPath,
		LotSize:     s.URL + LotSizePath,
	}
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// SetMarket replaces the data served from now on.
func (s *Server) SetMarket(m Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market = m
}

func (s *Server) snapshot() Market {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	m := s.snapshot()
	if m.IndexStatus != 0 {
		http.Error(w, "index unavailable", m.IndexStatus)
		return
	}
	write(w, "application/json", IndexJSON(m))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	stock, ok := s.snapshot().Stock(r.URL.Query().Get("symbol"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if stock.HistoryStatus != 0 {
		http.Error(w, "history unavailable", stock.HistoryStatus)
		return
	}
	write(w, "text/html; charset=utf-8", HistoryHTML(stock))
}

func (s *Server) handleOptionChain(w http.ResponseWriter, r *http.Request) {
	stock, ok := s.snapshot().Stock(r.URL.Query().Get("symbol"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if stock.ChainStatus != 0 {
		http.Error(w, "option chain unavailable", stock.ChainStatus)
		return
	}
	write(w, "text/html; charset=utf-8", OptionChainHTML(stock))
}

func (s *Server) handleLotSize(w http.ResponseWriter, r *http.Request) {
	m := s.snapshot()
	if m.LotSizeStatus != 0 {
		http.Error(w, "lot sizes unavailable", m.LotSizeStatus)
		return
	}
	write(w, "text/html; charset=utf-8", LotSizeHTML(m))
}

func write(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
