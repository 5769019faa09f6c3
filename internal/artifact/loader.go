package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"nidsboard/internal/logger"
	"nidsboard/pkg/models"
)

// ErrInvalid wraps decode and validation failures.
var ErrInvalid = errors.New("invalid artifact")

// maxArtifactBytes bounds remote downloads.
const maxArtifactBytes = 64 << 20

// Config selects where the artifact comes from. URL wins over Path.
type Config struct {
	Path    string
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// Loaded is a decoded artifact plus its content digest.
type Loaded struct {
	Artifact *models.Artifact
	Digest   string
	Source   string
}

// Load reads the artifact once from disk or over HTTP.
func Load(ctx context.Context, cfg Config) (*Loaded, error) {
	var (
		raw    []byte
		source string
		err    error
	)
	switch {
	case strings.TrimSpace(cfg.URL) != "":
		source = cfg.URL
		raw, err = fetch(ctx, cfg)
	case strings.TrimSpace(cfg.Path) != "":
		source = cfg.Path
		raw, err = os.ReadFile(cfg.Path)
		if err != nil {
			err = fmt.Errorf("read artifact %s: %w", cfg.Path, err)
		}
	default:
		return nil, fmt.Errorf("artifact path and url are both empty")
	}
	if err != nil {
		return nil, err
	}

	a, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])[:16]
	logger.Infof("Artifact loaded from %s: samples=%d models=%d digest=%s", source, len(a.Samples), len(a.Performance), digest)
	return &Loaded{Artifact: a, Digest: digest, Source: source}, nil
}

// Decode parses and validates artifact JSON.
func Decode(raw []byte) (*models.Artifact, error) {
	var a models.Artifact
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &a, nil
}

func fetch(ctx context.Context, cfg Config) ([]byte, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("artifact request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("artifact request failed with status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read artifact body: %w", err)
	}
	if len(raw) > maxArtifactBytes {
		return nil, fmt.Errorf("artifact exceeds %d bytes", maxArtifactBytes)
	}
	return raw, nil
}
