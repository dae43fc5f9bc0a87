package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FakeEngine describes how the scripted engine answers each invocation.
type FakeEngine struct {
	// InfoJSON is printed for --dump-single-json.
	InfoJSON string
	// Title is printed for --print title.
	Title string
	// Ext and Content are written to the output template on a fetch. An
	// empty Ext writes nothing, emulating a missing codec.
	Ext     string
	Content string
	// ExitCode and Stderr apply to fetches only.
	ExitCode int
	Stderr   string
}

// WriteFakeEngine writes an executable shell script into dir that behaves like
// yt-dlp for the probe, fetch and metadata invocations, and returns its path.
func WriteFakeEngine(t testing.TB, dir string, engine FakeEngine) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("mode=fetch\nout=\"\"\nprev=\"\"\n")
	b.WriteString("for arg in \"$@\"; do\n")
	b.WriteString("  case \"$arg\" in\n    --dump-single-json) mode=info ;;\n    --print) mode=probe ;;\n  esac\n")
	b.WriteString("  if [ \"$prev\" = \"--output\" ]; then out=\"$arg\"; fi\n  prev=\"$arg\"\ndone\n")
	b.WriteString("case \"$mode\" in\n")
	fmt.Fprintf(&b, "  info) printf '%%s' %s ;;\n", shellQuote(engine.InfoJSON))
	fmt.Fprintf(&b, "  probe) printf '%%s\\n' %s ;;\n", shellQuote(engine.Title))
	b.WriteString("  fetch)\n")
	// Every run leaves a partial behind, as the real engine does when interrupted.
	b.WriteString("    printf 'partial' > \"$(echo \"$out\" | sed 's/%(ext)s/webm.part/')\"\n")
	if engine.Ext != "" {
		fmt.Fprintf(&b, "    printf '%%s' %s > \"$(echo \"$out\" | sed 's/%%(ext)s/%s/')\"\n", shellQuote(engine.Content), engine.Ext)
		b.WriteString("    rm -f \"$(echo \"$out\" | sed 's/%(ext)s/webm.part/')\"\n")
	}
	if engine.Stderr != "" {
		fmt.Fprintf(&b, "    printf '%%s\\n' %s >&2\n", shellQuote(engine.Stderr))
	}
	fmt.Fprintf(&b, "    exit %d ;;\n", engine.ExitCode)
	b.WriteString("esac\n")

	path := filepath.Join(dir, "yt-dlp")
	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
