package ocr

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	rasterTimeout = 45 * time.Second
	sipsTimeout   = 30 * time.Second
)

var rePageIndex = regexp.MustCompile(`(?i)-(\d+)\.png$`)

// renderPages tries the rasterizers in order; the first one with output wins.
func (p *Pipeline) renderPages(ctx context.Context, pdfPath, prefix string, opts Options) []string {
	for _, tool := range []string{"pdftoppm", "pdftocairo"} {
		if pages := p.rasterize(ctx, tool, pdfPath, prefix, opts); len(pages) > 0 {
			return pages
		}
	}
	return p.renderWithSips(ctx, pdfPath, prefix)
}

func (p *Pipeline) rasterize(ctx context.Context, tool, pdfPath, prefix string, opts Options) []string {
	cctx, cancel := context.WithTimeout(ctx, rasterTimeout)
	defer cancel()

	// <tool> -png -r DPI -f 1 -l N in.pdf <prefix>
	_, _, err := p.runner.Run(cctx, tool, p.logger,
		"-png", "-r", strconv.Itoa(opts.DPI), "-f", "1", "-l", strconv.Itoa(opts.MaxPages), pdfPath, prefix)
	if err != nil {
		p.logger.Debug("ocr.render.failed", "tool", tool, "error", err)
		return nil
	}
	return listRenderedImages(filepath.Dir(prefix), filepath.Base(prefix))
}

func (p *Pipeline) renderWithSips(ctx context.Context, pdfPath, prefix string) []string {
	cctx, cancel := context.WithTimeout(ctx, sipsTimeout)
	defer cancel()

	out := prefix + "-1.png"
	if _, _, err := p.runner.Run(cctx, "sips", p.logger, "-s", "format", "png", pdfPath, "--out", out); err != nil {
		p.logger.Debug("ocr.render.failed", "tool", "sips", "error", err)
		return nil
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		return nil
	}
	return []string{out}
}

// listRenderedImages returns <base>-N.png files ordered by N.
func listRenderedImages(dir, base string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, base+"-") || !strings.HasSuffix(strings.ToLower(name), ".png") {
			continue
		}
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return pageOrder(names[i]) < pageOrder(names[j])
	})

	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, filepath.Join(dir, n))
	}
	return out
}

func pageOrder(name string) int {
	m := rePageIndex.FindStringSubmatch(name)
	if m == nil {
		return math.MaxInt
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return math.MaxInt
	}
	return n
}
