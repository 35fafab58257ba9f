package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jmorganca/subword/api"
	"github.com/jmorganca/subword/envconfig"
	"github.com/jmorganca/subword/metrics"
	"github.com/jmorganca/subword/model"
	"github.com/jmorganca/subword/tokenizer"
)

var errNoModel = errors.New("no model loaded, train one with /api/train or start the server with a merges file")

// Server serves training and segmentation over HTTP. Training replaces the
// active model; segmentation only reads it.
type Server struct {
	mu    sync.RWMutex
	model *model.Model
}

func NewServer(m *model.Model) *Server {
	return &Server{model: m}
}

func (s *Server) Model() *model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *Server) setModel(m *model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
}

func (s *Server) TrainHandler(c *gin.Context) {
	var req api.TrainRequest
	if err := c.ShouldBindJSON(&req); errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing request body"})
		return
	} else if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := tokenizer.Config{Rounds: envconfig.Rounds, Marker: envconfig.Marker}
	if req.Rounds != nil {
		config.Rounds = *req.Rounds
	}

	if req.Marker != "" {
		config.Marker = req.Marker
	}

	if err := config.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	corpus := tokenizer.PrepareCorpus(req.Text, config.Marker)
	if len(corpus) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	id := uuid.NewString()
	ctx := c.Request.Context()
	ch := make(chan any)
	send := func(v any) {
		select {
		case ch <- v:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(ch)

		stream := req.Stream == nil || *req.Stream
		config.OnRound = func(r tokenizer.Round) {
			metrics.MergesLearned.Inc()
			if stream {
				pair := api.Merge{r.Pair.Left, r.Pair.Right}
				send(api.TrainResponse{ID: id, Round: r.Number, Pair: &pair, Count: r.Count, Tokens: r.Tokens, Vocab: r.Vocabulary})
			}
		}

		trainer, err := tokenizer.NewTrainer(corpus, config)
		if err != nil {
			send(gin.H{"error": err.Error()})
			return
		}

		merges, err := trainer.Run(ctx)
		if err != nil {
			slog.Info("training stopped", "id", id, "rounds", trainer.Rounds(), "error", err)
			send(gin.H{"error": err.Error()})
			return
		}

		s.setModel(model.New(merges, config.Marker))
		slog.Info("trained model", "id", id, "merges", len(merges), "marker", config.Marker)
		send(api.TrainResponse{ID: id, Done: true, Marker: config.Marker, Merges: api.MergesFrom(merges)})
	}()

	if req.Stream != nil && !*req.Stream {
		var resp any
		for v := range ch {
			resp = v
		}

		if h, ok := resp.(gin.H); ok {
			c.JSON(http.StatusInternalServerError, h)
			return
		}

		c.JSON(http.StatusOK, resp)
		return
	}

	streamResponse(c, ch)
}

func (s *Server) SegmentHandler(c *gin.Context) {
	var req api.SegmentRequest
	if err := c.ShouldBindJSON(&req); errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing request body"})
		return
	} else if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	words := append(req.Words, strings.Fields(req.Text)...)
	if len(words) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "words or text is required"})
		return
	}

	m := s.Model()
	if m == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errNoModel.Error()})
		return
	}

	metrics.WordsSegmented.Add(float64(len(words)))

	segmenter := m.Segmenter()
	segmenter.Parallel = envconfig.MaxParallel
	segments, err := segmenter.SegmentAll(c.Request.Context(), words)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.SegmentResponse{Segments: segments})
}

func (s *Server) MergesHandler(c *gin.Context) {
	m := s.Model()
	if m == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errNoModel.Error()})
		return
	}

	c.JSON(http.StatusOK, api.MergesResponse{Marker: m.Marker, Merges: api.MergesFrom(m.Merges)})
}

func (s *Server) GenerateRoutes() http.Handler {
	config := cors.DefaultConfig()
	config.AllowWildcard = true
	config.AllowBrowserExtensions = true
	config.AllowHeaders = []string{"Authorization", "Content-Type", "User-Agent", "Accept", "X-Requested-With"}
	config.AllowOrigins = envconfig.Origins

	r := gin.Default()
	r.Use(
		cors.New(config),
		metrics.Middleware(),
	)

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "subword is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "subword is running") })

	r.POST("/api/train", s.TrainHandler)
	r.POST("/api/segment", s.SegmentHandler)
	r.GET("/api/merges", s.MergesHandler)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func Serve(ctx context.Context, ln net.Listener, m *model.Model) error {
	s := NewServer(m)
	srvr := &http.Server{
		Handler: s.GenerateRoutes(),
	}

	go func() {
		<-ctx.Done()
		srvr.Close()
	}()

	slog.Info(fmt.Sprintf("Listening on %s", ln.Addr()))
	if err := srvr.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func streamResponse(c *gin.Context, ch chan any) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Stream(func(w io.Writer) bool {
		val, ok := <-ch
		if !ok {
			return false
		}

		bts, err := json.Marshal(val)
		if err != nil {
			slog.Info(fmt.Sprintf("streamResponse: json.Marshal failed with %s", err))
			return false
		}

		// Delineate chunks with new-line delimiter
		bts = append(bts, '\n')
		if _, err := w.Write(bts); err != nil {
			slog.Info(fmt.Sprintf("streamResponse: w.Write failed with %s", err))
			return false
		}

		return true
	})
}
