package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/cleansight/internal/config"
	apierrors "github.com/diogo/cleansight/internal/errors"
	"github.com/diogo/cleansight/internal/models"
)

func TestRunQueryPrintsNormalizedReply(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "Rinse the jar and recycle it."}
	useGenerator(gen)

	var out bytes.Buffer
	if err := runQuery(context.Background(), &out, "  glass jar?  "); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}

	want := models.ResponseHeading + "Rinse the jar and recycle it."
	if !strings.Contains(out.String(), want) {
		t.Errorf("expected %q in output, got %q", want, out.String())
	}

	req := gen.last()
	if req == nil {
		t.Fatal("expected one relay call")
	}
	if len(req.Contents) != 1 {
		t.Fatalf("expected only the final entry, got %d", len(req.Contents))
	}
	final := req.Contents[0]
	if final.Role != models.RoleUser {
		t.Errorf("expected user role, got %s", final.Role)
	}
	if final.Parts[0] != (models.TextPart{Text: models.DefaultPreamble}) {
		t.Error("expected the default preamble first")
	}
	if final.Parts[1] != (models.TextPart{Text: "glass jar?"}) {
		t.Errorf("expected trimmed prompt, got %+v", final.Parts[1])
	}
}

func TestRunQueryUsesPersonaFlag(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "## Short\n\n- Recycle"}
	useGenerator(gen)
	personaFlag = "concise"

	if err := runQuery(context.Background(), &bytes.Buffer{}, "cardboard"); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}

	concise, _ := config.GetPersona("concise")
	if got := gen.last().Contents[0].Parts[0]; got != (models.TextPart{Text: concise.Preamble}) {
		t.Errorf("expected concise preamble, got %+v", got)
	}
}

func TestRunQueryUnknownPersona(t *testing.T) {
	setupCommand(t)
	useGenerator(&stubGenerator{})
	personaFlag = "pirate"

	if err := runQuery(context.Background(), &bytes.Buffer{}, "cardboard"); err == nil {
		t.Error("expected error for unknown persona")
	}
}

func TestRunQueryRelayURLFlag(t *testing.T) {
	setupCommand(t)
	seen := useGenerator(&stubGenerator{reply: "ok"})
	relayURLFlag = "http://relay.internal:8080/api/gemini"

	if err := runQuery(context.Background(), &bytes.Buffer{}, "battery"); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}
	if seen.RelayURL != relayURLFlag {
		t.Errorf("expected relay url %s, got %s", relayURLFlag, seen.RelayURL)
	}
	if seen.Timeout() <= 0 {
		t.Error("expected a positive client timeout")
	}
}

func TestRunQueryWithImage(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "## Bottle\n\nRecycle."}
	useGenerator(gen)

	imageFlag = filepath.Join(t.TempDir(), "bottle.png")
	if err := os.WriteFile(imageFlag, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runQuery(context.Background(), &bytes.Buffer{}, ""); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}

	parts := gen.last().Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected preamble and image parts, got %d", len(parts))
	}
	inline, ok := parts[1].(models.InlineDataPart)
	if !ok {
		t.Fatalf("expected inline data, got %T", parts[1])
	}
	if inline.MIMEType != "image/png" || inline.Data != "cG5n" {
		t.Errorf("unexpected inline data %+v", inline)
	}
}

func TestRunQueryInvalidImage(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "unused"}
	useGenerator(gen)
	imageFlag = filepath.Join(t.TempDir(), "missing.png")

	if err := runQuery(context.Background(), &bytes.Buffer{}, "what is this"); err == nil {
		t.Error("expected error for missing image")
	}
	if gen.last() != nil {
		t.Error("nothing should be sent for an invalid image")
	}
}

func TestRunQueryEmptyPrompt(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{}
	useGenerator(gen)

	if err := runQuery(context.Background(), &bytes.Buffer{}, "   "); err == nil {
		t.Error("expected error for empty prompt")
	}
	if gen.last() != nil {
		t.Error("empty prompt must not reach the relay")
	}
}

func TestRunQueryReportsRelayFailure(t *testing.T) {
	setupCommand(t)
	useGenerator(&stubGenerator{err: apierrors.NewAPIError(500, "relay", models.MsgUpstreamFailed)})

	var out bytes.Buffer
	err := runQuery(context.Background(), &out, "paint cans")
	if !errors.Is(err, errNoAnswer) {
		t.Fatalf("expected errNoAnswer, got %v", err)
	}
	if !strings.Contains(out.String(), models.FallbackClientError) {
		t.Errorf("expected the fallback answer, got %q", out.String())
	}
}

func TestRunQueryHidesFailureCause(t *testing.T) {
	setupCommand(t)
	relayURL := "http://10.0.0.5:3000/api/gemini"
	cause := apierrors.NewNetworkError("relay generate", relayURL,
		errors.New("dial tcp 10.0.0.5:3000: connect: connection refused"))
	useGenerator(&stubGenerator{err: cause})

	var out bytes.Buffer
	err := runQuery(context.Background(), &out, "batteries")
	if err == nil {
		t.Fatal("expected a non-zero exit")
	}

	for _, leaked := range []string{relayURL, "10.0.0.5", "dial tcp", "connection refused"} {
		if strings.Contains(out.String(), leaked) {
			t.Errorf("output leaks %q: %q", leaked, out.String())
		}
		if strings.Contains(err.Error(), leaked) {
			t.Errorf("returned error leaks %q: %v", leaked, err)
		}
	}
	if errors.Is(err, cause) {
		t.Error("returned error should not wrap the cause")
	}
	if strings.TrimSpace(out.String()) != models.FallbackClientError {
		t.Errorf("expected only the fallback answer, got %q", out.String())
	}
}

func TestRunQueryReadsImageFromStdin(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "## Glass\n\nRecycle it."}
	useGenerator(gen)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	deps.Stdin = bytes.NewReader(png)
	imageFlag = stdinImage

	if err := runQuery(context.Background(), &bytes.Buffer{}, "what bin?"); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}

	req := gen.last()
	if req == nil {
		t.Fatal("expected one relay call")
	}
	var inline *models.InlineDataPart
	for _, part := range req.Contents[len(req.Contents)-1].Parts {
		if p, ok := part.(models.InlineDataPart); ok {
			inline = &p
		}
	}
	if inline == nil {
		t.Fatal("expected an inline image part")
	}
	if inline.MIMEType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", inline.MIMEType)
	}
}

func TestRunQueryRejectsNonImageStdin(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "unused"}
	useGenerator(gen)
	deps.Stdin = strings.NewReader("just some text")
	imageFlag = stdinImage

	err := runQuery(context.Background(), &bytes.Buffer{}, "what is it?")
	if err == nil || !strings.Contains(err.Error(), "unsupported image type") {
		t.Fatalf("expected unsupported image type, got %v", err)
	}
	if gen.last() != nil {
		t.Error("relay should not be called")
	}
}

func TestRunQueryWritesOutputFile(t *testing.T) {
	setupCommand(t)
	useGenerator(&stubGenerator{reply: "## Paper\n\nRecycle it."})
	outputFlag = filepath.Join(t.TempDir(), "answer.md")

	var out bytes.Buffer
	if err := runQuery(context.Background(), &out, "paper"); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}

	data, err := os.ReadFile(outputFlag)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "## Paper\n\nRecycle it." {
		t.Errorf("unexpected file content %q", data)
	}
	if out.Len() != 0 {
		t.Error("stdout should stay empty when writing a file")
	}
}

func TestRunQueryInvalidClientConfig(t *testing.T) {
	path := setupCommand(t)
	cfg := config.DefaultConfig()
	cfg.Client.WindowSize = 0
	if err := config.SaveConfigTo(path, cfg); err != nil {
		t.Fatal(err)
	}
	useGenerator(&stubGenerator{})

	err := runQuery(context.Background(), &bytes.Buffer{}, "foil")
	var cfgErr *apierrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRootCommandRunsQuery(t *testing.T) {
	setupCommand(t)
	useGenerator(&stubGenerator{reply: "## Foil\n\nClean it first."})

	out, err := execute(t, "is foil recyclable", "--raw")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !strings.Contains(out, "Clean it first.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRootCommandReadsFile(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "ok"}
	useGenerator(gen)

	path := filepath.Join(t.TempDir(), "q.md")
	if err := os.WriteFile(path, []byte("old batteries\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "-f", path, "--raw"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if got := gen.last().Contents[0].Parts[1]; got != (models.TextPart{Text: "old batteries"}) {
		t.Errorf("unexpected prompt part %+v", got)
	}
}

func TestRunQueryForwardsGenerationConfig(t *testing.T) {
	setupCommand(t)
	t.Setenv(config.EnvPrefix+"_CLIENT_TEMPERATURE", "0.2")
	t.Setenv(config.EnvPrefix+"_CLIENT_MAX_OUTPUT_TOKENS", "512")
	gen := &stubGenerator{reply: "Recycle it."}
	useGenerator(gen)

	if err := runQuery(context.Background(), &bytes.Buffer{}, "tin can"); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}

	gc := gen.last().GenerationConfig
	if gc == nil {
		t.Fatal("expected generationConfig on the request")
	}
	if gc.Temperature == nil || *gc.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", gc.Temperature)
	}
	if gc.MaxOutputTokens != 512 {
		t.Errorf("expected 512 max output tokens, got %d", gc.MaxOutputTokens)
	}
}

func TestRunQueryOmitsGenerationConfigByDefault(t *testing.T) {
	setupCommand(t)
	gen := &stubGenerator{reply: "Recycle it."}
	useGenerator(gen)

	if err := runQuery(context.Background(), &bytes.Buffer{}, "tin can"); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}
	if gen.last().GenerationConfig != nil {
		t.Errorf("expected no generationConfig, got %+v", gen.last().GenerationConfig)
	}
}
