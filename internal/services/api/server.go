// Package api serves aggregation runs over HTTP for editors and agents that cannot spawn the CLI.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	maximumRequestBytes     = 1 << 20
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	capabilitiesPath        = "/capabilities"
	aggregatePath           = "/aggregate"
	rootPath                = "/"
	errorFieldName          = "error"

	aggregateCapabilityName        = "aggregate"
	aggregateCapabilityDescription = "Concatenate the files of a directory, each preceded by a comment header"

	errorOutsideRootFormat  = "directory %q is outside of the served root"
	errorDecodeFormat       = "decode request: %v"
	warningRequestFailedFmt = "Aggregation request for %q failed: %v"
)

// Capability describes a feature exposed by the server.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AggregateRequest is the JSON body accepted by POST /aggregate.
// Directory is resolved against the served root and must stay inside it.
type AggregateRequest struct {
	Directory     string   `json:"directory"`
	IncludeHidden bool     `json:"includeHidden"`
	NoIgnore      bool     `json:"noIgnore"`
	FileTypes     []string `json:"fileTypes"`
	Tokens        bool     `json:"tokens"`
	Model         string   `json:"model"`
}

// AggregateResponse carries the aggregated text and its summary counts.
type AggregateResponse struct {
	Text       string   `json:"text"`
	Files      int      `json:"files"`
	Characters int      `json:"characters"`
	Tokens     int      `json:"tokens,omitempty"`
	Model      string   `json:"model,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Aggregator performs one aggregation for a request whose Directory is already an absolute path.
type Aggregator interface {
	Aggregate(ctx context.Context, request AggregateRequest) (AggregateResponse, error)
}

// AggregatorFunc adapts a function into an Aggregator.
type AggregatorFunc func(context.Context, AggregateRequest) (AggregateResponse, error)

// Aggregate invokes the underlying function.
func (aggregator AggregatorFunc) Aggregate(ctx context.Context, request AggregateRequest) (AggregateResponse, error) {
	return aggregator(ctx, request)
}

// RequestError represents a failure accompanied by an HTTP status code.
type RequestError struct {
	statusCode int
	err        error
}

// Error returns the error string.
func (requestError RequestError) Error() string {
	return requestError.err.Error()
}

// Unwrap exposes the wrapped error.
func (requestError RequestError) Unwrap() error {
	return requestError.err
}

// StatusCode reports the associated HTTP status code.
func (requestError RequestError) StatusCode() int {
	return requestError.statusCode
}

// NewRequestError creates a new RequestError.
func NewRequestError(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return RequestError{statusCode: statusCode, err: err}
}

// Config defines runtime options for the server.
type Config struct {
	Address         string
	Root            string
	Aggregator      Aggregator
	Logger          *zap.Logger
	ShutdownTimeout time.Duration
}

// Server exposes capability metadata and aggregation over HTTP.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	normalized.Root = filepath.Clean(normalized.Root)
	return Server{config: normalized}
}

// Run starts the server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.Handler()}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", serveErr)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

// Handler returns the HTTP routes of the server.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(aggregatePath, server.handleAggregate)
	router.HandleFunc(rootPath, server.handleRoot)
	return router
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: []Capability{{Name: aggregateCapabilityName, Description: aggregateCapabilityDescription}}}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path != rootPath {
		writer.WriteHeader(http.StatusNotFound)
		return
	}
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleAggregate(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var aggregateRequest AggregateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maximumRequestBytes))
	decoder.DisallowUnknownFields()
	if decodeErr := decoder.Decode(&aggregateRequest); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		server.writeError(writer, http.StatusBadRequest, fmt.Sprintf(errorDecodeFormat, decodeErr))
		return
	}

	directory, resolveErr := server.resolveDirectory(aggregateRequest.Directory)
	if resolveErr != nil {
		server.writeError(writer, http.StatusBadRequest, resolveErr.Error())
		return
	}
	aggregateRequest.Directory = directory

	response, aggregateErr := server.config.Aggregator.Aggregate(request.Context(), aggregateRequest)
	if aggregateErr != nil {
		server.config.Logger.Warn(fmt.Sprintf(warningRequestFailedFmt, directory, aggregateErr))
		server.writeError(writer, server.statusCodeFromError(aggregateErr), aggregateErr.Error())
		return
	}
	server.writeJSON(writer, http.StatusOK, response)
}

// resolveDirectory maps a requested directory onto the served root. Relative paths are joined to the root;
// absolute paths are accepted only when they are inside it. Existing paths are also compared after resolving
// symbolic links, so a link inside the root cannot lead the walk outside of it.
func (server Server) resolveDirectory(requested string) (string, error) {
	root := server.config.Root
	candidate := root
	trimmed := strings.TrimSpace(requested)
	if trimmed != "" {
		if filepath.IsAbs(trimmed) {
			candidate = filepath.Clean(trimmed)
		} else {
			candidate = filepath.Join(root, trimmed)
		}
	}
	if !isWithin(root, candidate) {
		return "", fmt.Errorf(errorOutsideRootFormat, requested)
	}
	resolvedCandidate, candidateErr := filepath.EvalSymlinks(candidate)
	if candidateErr != nil {
		// missing targets are reported by the aggregator
		return candidate, nil
	}
	resolvedRoot, rootErr := filepath.EvalSymlinks(root)
	if rootErr != nil {
		resolvedRoot = root
	}
	if !isWithin(resolvedRoot, resolvedCandidate) {
		return "", fmt.Errorf(errorOutsideRootFormat, requested)
	}
	return candidate, nil
}

func isWithin(root string, candidate string) bool {
	relativePath, relativeErr := filepath.Rel(root, candidate)
	if relativeErr != nil {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}

func (server Server) writeError(writer http.ResponseWriter, statusCode int, message string) {
	server.writeJSON(writer, statusCode, map[string]string{errorFieldName: message})
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := map[string]string{errorFieldName: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

func (server Server) statusCodeFromError(err error) int {
	var requestError RequestError
	if errors.As(err, &requestError) {
		return requestError.StatusCode()
	}
	return http.StatusInternalServerError
}
