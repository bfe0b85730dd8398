package style

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/docker/go-units"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// Renderer writes command results in one output format.
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer for w. FormatAuto is resolved against w
// when it is a terminal file and falls back to plain text otherwise.
func NewRenderer(w io.Writer, format Format) *Renderer {
	if format == FormatAuto {
		format = FormatText
		if f, ok := w.(*os.File); ok {
			format = DetectFormat(f)
		}
	}
	return &Renderer{w: w, format: format}
}

// Format returns the resolved output format.
func (r *Renderer) Format() Format {
	return r.format
}

// Machine reports whether the output is JSON or YAML.
func (r *Renderer) Machine() bool {
	return r.format == FormatJSON || r.format == FormatYAML
}

// RenderReleases renders a release listing.
func (r *Renderer) RenderReleases(releases []types.Release) error {
	if releases == nil {
		releases = []types.Release{}
	}
	if r.Machine() {
		return r.encode(releases)
	}
	if len(releases) == 0 {
		return r.println(MutedStyle.Render("No releases published yet"))
	}

	data := pterm.TableData{{"", "RELEASE", "CREATED", "FILES", "SIZE", "DIGEST"}}
	for _, rel := range releases {
		marker, id := "", ReleaseStyle.Render(rel.ID.String())
		if rel.Live {
			marker, id = LiveIndicator, LiveStyle.Render(rel.ID.String())
		}
		data = append(data, []string{
			marker,
			id,
			formatTime(rel.CreatedAt),
			formatCount(rel.Files),
			formatSize(rel.Size),
			shortDigest(rel.Digest),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	return r.println(table)
}

// RenderRelease renders the details of one release.
func (r *Renderer) RenderRelease(rel types.Release) error {
	if r.Machine() {
		return r.encode(rel)
	}

	title := ReleaseStyle.Render(rel.ID.String())
	if rel.Live {
		title = LiveIndicator + " " + LiveStyle.Render(rel.ID.String()) + " " + MutedStyle.Render("(live)")
	}

	var b strings.Builder
	b.WriteString(field("Release", title))
	b.WriteString(field("Created", formatTime(rel.CreatedAt)))
	b.WriteString(field("Path", PathStyle.Render(rel.Path)))
	if rel.Source != "" {
		b.WriteString(field("Source", PathStyle.Render(rel.Source)))
	}
	if rel.Digest != "" {
		b.WriteString(field("Files", strconv.Itoa(rel.Files)))
		b.WriteString(field("Size", formatSize(rel.Size)))
		b.WriteString(field("Digest", rel.Digest))
	}
	return r.print(b.String())
}

// RenderActivation renders a live pointer change.
func (r *Renderer) RenderActivation(res types.ActivationResult) error {
	if r.Machine() {
		return r.encode(res)
	}
	return r.println(activationLine(res))
}

// RenderPrune renders the outcome of a prune.
func (r *Renderer) RenderPrune(res types.PruneResult) error {
	if r.Machine() {
		return r.encode(res)
	}
	return r.print(pruneLines(res))
}

// RenderPublish renders a publish and what followed it.
func (r *Renderer) RenderPublish(res types.PublishResult) error {
	if r.Machine() {
		return r.encode(res)
	}

	var b strings.Builder
	id := ReleaseStyle.Render(res.Release.ID.String())
	if res.DryRun {
		fmt.Fprintf(&b, "%s Would publish release %s from %s\n", DryRunIndicator, id, PathStyle.Render(res.Release.Source))
	} else {
		fmt.Fprintf(&b, "%s Published release %s (%s files, %s)\n", SuccessIndicator, id,
			formatCount(res.Release.Files), formatSize(res.Release.Size))
	}
	if res.Activation != nil {
		b.WriteString(activationLine(*res.Activation) + "\n")
	}
	if res.Prune != nil {
		b.WriteString(pruneLines(*res.Prune))
	}
	return r.print(b.String())
}

// RenderMessage renders a simple message.
func (r *Renderer) RenderMessage(msg string) error {
	if r.Machine() {
		return r.encode(map[string]string{"message": msg})
	}
	return r.println(msg)
}

// RenderError renders an error with its code.
func (r *Renderer) RenderError(err error) error {
	if r.Machine() {
		out := map[string]interface{}{
			"error": err.Error(),
			"code":  string(errors.GetErrorCode(err)),
		}
		if details := errors.GetErrorDetails(err); len(details) > 0 {
			out["details"] = details
		}
		return r.encode(out)
	}
	return r.println(ErrorIndicator + " " + ErrorStyle.Render("Error:") + " " + err.Error())
}

func activationLine(res types.ActivationResult) string {
	id := LiveStyle.Render(res.Release.String())
	switch {
	case !res.Changed:
		return fmt.Sprintf("%s Release %s is already live", SuccessIndicator, id)
	case res.DryRun:
		return fmt.Sprintf("%s Would activate %s%s", DryRunIndicator, id, previousSuffix(res.Previous))
	default:
		return fmt.Sprintf("%s Activated %s%s", SuccessIndicator, id, previousSuffix(res.Previous))
	}
}

func previousSuffix(prev types.ReleaseID) string {
	if prev == "" {
		return ""
	}
	return MutedStyle.Render(" (was " + prev.String() + ")")
}

func pruneLines(res types.PruneResult) string {
	var b strings.Builder
	verb := "Pruned"
	indicator := SuccessIndicator
	if res.DryRun {
		verb, indicator = "Would prune", DryRunIndicator
	}
	fmt.Fprintf(&b, "%s %s %d %s, kept %d\n", indicator, verb, res.DeletedCount(),
		plural(res.DeletedCount(), "release", "releases"), len(res.Kept))
	for _, id := range res.Deleted {
		b.WriteString(Indent(MutedStyle.Render("- "+id.String()), 1) + "\n")
	}
	for _, id := range res.Failed {
		b.WriteString(Indent(ErrorIndicator+" "+id.String(), 1) + "\n")
	}
	return b.String()
}

func field(label, value string) string {
	return TitleStyle.Render(fmt.Sprintf("%-8s", label)) + " " + value + "\n"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateTime) + " UTC"
}

func formatSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	return units.HumanSize(float64(size))
}

func formatCount(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func shortDigest(digest string) string {
	digest = strings.TrimPrefix(digest, "sha256:")
	if len(digest) > 12 {
		return digest[:12]
	}
	if digest == "" {
		return "-"
	}
	return digest
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (r *Renderer) encode(v interface{}) error {
	switch r.format {
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func (r *Renderer) print(s string) error {
	if r.format != FormatTerminal {
		s = pterm.RemoveColorFromString(s)
	}
	_, err := io.WriteString(r.w, s)
	return err
}

func (r *Renderer) println(s string) error {
	return r.print(s + "\n")
}
