// Package pipeline drives the georeferencing batch. Independent
// mutations are processed in parallel by a fixed pool of workers; each
// mutation runs through thresholding, symbol detection, location
// estimation and geometric matching, and every artifact is written with
// an atomic rename so an interrupted batch can simply be restarted.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"

	"github.com/brawer/cadaref-zurich/internal/config"
	"github.com/brawer/cadaref-zurich/internal/match"
	"github.com/brawer/cadaref-zurich/internal/ocr"
	"github.com/brawer/cadaref-zurich/internal/survey"
	"github.com/brawer/cadaref-zurich/internal/symbol"
	"github.com/brawer/cadaref-zurich/internal/threshold"
	"github.com/brawer/cadaref-zurich/pkg/geometry"
)

// Status summarizes what happened to one mutation.
type Status string

const (
	// StatusOK means at least one page was georeferenced.
	StatusOK Status = "OK"

	// StatusBoundsNotFound means no evidence narrowed down where on
	// the ground the mutation's plans are located.
	StatusBoundsNotFound Status = "BoundsNotFound"

	// StatusNotEnoughSymbols means no page showed enough cartographic
	// point symbols to anchor a transform.
	StatusNotEnoughSymbols Status = "NotEnoughSymbols"

	// StatusScreenshot means the only symbol-bearing pages were
	// screenshots of the survey database tool, not scanned plans.
	StatusScreenshot Status = "Screenshot"

	// StatusCouldNotMatch means symbols were detected but no transform
	// brought them into correspondence with survey points.
	StatusCouldNotMatch Status = "CouldNotMatch"

	// StatusCrashed means processing aborted on malformed input or an
	// environment error. The batch continues with other mutations.
	StatusCrashed Status = "Crashed"
)

// minSymbols is the fewest detected symbols worth matching. Three anchor
// a transform; requiring a fourth rejects most false detections.
const minSymbols = 4

// Result reports the outcome for one mutation.
type Result struct {
	Mutation string
	Status   Status
	Pages    int
	Plans    int
	Err      error
}

// Pipeline georeferences scanned mutation plans against survey data.
// Construct once per batch; safe for use by concurrent workers since the
// survey dataset is read-only after loading.
type Pipeline struct {
	cfg     *config.Config
	dataset *survey.Dataset
	params  match.Params
}

// New assembles a pipeline from configuration and a loaded survey dataset.
func New(cfg *config.Config, dataset *survey.Dataset) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		dataset: dataset,
		params: match.Params{
			ToleranceM:      cfg.Match.Tolerance,
			AcceptResidualM: cfg.Match.AcceptResidual,
			PenaltyM:        cfg.Match.Penalty,
			Scales:          cfg.Match.Scales,
		},
	}
}

// Run processes every mutation found under the rendered pages directory
// and writes a batch report when done. Mutations whose log file already
// exists are skipped, so an interrupted batch resumes where it stopped.
func (p *Pipeline) Run(ctx context.Context) error {
	mutations, err := p.discover()
	if err != nil {
		return err
	}
	slog.Info("starting batch", "mutations", len(mutations), "workers", p.cfg.Workers.Count)

	jobs := make(chan *mutationJob)
	results := make(chan Result)
	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers.Count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, jobs, results)
		}()
	}
	go func() {
		defer close(jobs)
		for _, job := range mutations {
			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var report []Result
	for r := range results {
		report = append(report, r)
		if r.Err != nil {
			slog.Error("mutation failed", "mutation", r.Mutation, "status", r.Status, "err", r.Err)
		} else {
			slog.Info("mutation done", "mutation", r.Mutation, "status", r.Status, "plans", r.Plans)
		}
	}
	if err := p.writeReport(report); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Pipeline) worker(ctx context.Context, jobs <-chan *mutationJob, results chan<- Result) {
	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- p.processMutation(job)
	}
}

// mutationJob names one mutation and the scan directories holding its
// rendered pages.
type mutationJob struct {
	ID      string
	Date    *time.Time
	Parcels []string
	Scans   []string // directories under paths.rendered, sorted
}

// discover walks the rendered pages directory and groups scans by the
// mutation they document. A scan directory is named after the archive
// filename of the PDF it was rendered from.
func (p *Pipeline) discover() ([]*mutationJob, error) {
	entries, err := os.ReadDir(p.cfg.Paths.Rendered)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	byID := make(map[string]*mutationJob)
	var order []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, ok := ExtractMutationID(e.Name())
		if !ok {
			slog.Warn("skipping unrecognized scan", "name", e.Name())
			continue
		}
		job := byID[id]
		if job == nil {
			job = &mutationJob{ID: id}
			if date, ok := ExtractMutationDate(e.Name()); ok {
				job.Date = &date
			}
			byID[id] = job
			order = append(order, id)
		}
		job.Parcels = append(job.Parcels, ExtractParcels(e.Name())...)
		job.Scans = append(job.Scans, filepath.Join(p.cfg.Paths.Rendered, e.Name()))
	}
	sort.Strings(order)
	jobs := make([]*mutationJob, 0, len(order))
	for _, id := range order {
		job := byID[id]
		sort.Strings(job.Scans)
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// processMutation runs one mutation through the whole pipeline. The log
// file doubles as a checkpoint: its presence means the mutation is done,
// and the status it recorded is what a resumed batch reports.
func (p *Pipeline) processMutation(job *mutationJob) Result {
	logPath := filepath.Join(p.cfg.Paths.Workdir, "logs", job.ID+".txt")
	if data, err := os.ReadFile(logPath); err == nil {
		if s, ok := statusFromLog(data); ok {
			return Result{Mutation: job.ID, Status: s}
		}
	}

	log := &mutationLog{id: job.ID, date: job.Date}
	result := p.doProcess(job, log)
	log.status(result.Status)
	if err := writeFileAtomic(logPath, log.bytes()); err != nil && result.Err == nil {
		result.Status = StatusCrashed
		result.Err = err
	}
	return result
}

func (p *Pipeline) doProcess(job *mutationJob, log *mutationLog) Result {
	pages, err := listPages(job.Scans)
	if err != nil {
		return Result{Mutation: job.ID, Status: StatusCrashed, Err: err}
	}
	result := Result{Mutation: job.ID, Pages: len(pages)}

	text, err := p.loadText(job, pages)
	if err != nil {
		result.Status = StatusCrashed
		result.Err = err
		return result
	}
	ocrParcels := ocr.ExtractParcels(strings.Join(text, "\f"))
	log.printf("ocr_parcels: %s", strings.Join(ocrParcels, " "))

	bounds, ok := p.dataset.EstimateBounds(job.ID, job.Parcels, ocrParcels)
	if !ok {
		log.printf("status: cannot guess approx location")
		result.Status = StatusBoundsNotFound
		return result
	}
	log.printf("bounds: (%g, %g)..(%g, %g)", bounds.X, bounds.Y, bounds.MaxX(), bounds.MaxY())
	boundsData, err := encodeBoundsCSV(bounds)
	if err == nil {
		err = writeFileAtomic(filepath.Join(p.cfg.Paths.Workdir, "bounds", job.ID+".csv"), boundsData)
	}
	if err != nil {
		result.Status = StatusCrashed
		result.Err = err
		return result
	}

	var detections []pageSymbol
	sawSymbols, sawScreenshot := false, false
	for i, pagePath := range pages {
		pageNum := i + 1
		pageText := ""
		if i < len(text) {
			pageText = text[i]
		}
		plans, det, err := p.processPage(job, pageNum, pagePath, pageText, bounds, log)
		if err != nil {
			result.Status = StatusCrashed
			result.Err = fmt.Errorf("page %d: %w", pageNum, err)
			return result
		}
		detections = append(detections, det...)
		if plans > 0 {
			result.Plans += plans
		} else {
			matchable, screenshot := pageStatusFlags(det, pageText)
			sawSymbols = sawSymbols || matchable
			sawScreenshot = sawScreenshot || screenshot
		}
	}

	if len(detections) > 0 {
		data, err := encodeSymbolsCSV(detections)
		if err == nil {
			err = writeFileAtomic(filepath.Join(p.cfg.Paths.Workdir, "symbols", job.ID+".csv"), data)
		}
		if err != nil {
			result.Status = StatusCrashed
			result.Err = err
			return result
		}
	}

	switch {
	case result.Plans > 0:
		result.Status = StatusOK
	case sawSymbols:
		result.Status = StatusCouldNotMatch
	case sawScreenshot:
		result.Status = StatusScreenshot
	default:
		result.Status = StatusNotEnoughSymbols
	}
	return result
}

// pageStatusFlags decides how an unmatched page counts towards the
// mutation status. Only white-family symbols make a page matchable;
// black dots are too often misdetected text and dotted lines.
func pageStatusFlags(det []pageSymbol, pageText string) (matchable, screenshot bool) {
	white := 0
	for _, d := range det {
		if d.Symbol.Kind.IsWhite() {
			white++
		}
	}
	if white < minSymbols {
		return false, false
	}
	if ocr.IsScreenshot(pageText) {
		return false, true
	}
	return true, false
}

// processPage thresholds and matches a single page. Returns the number
// of georeferenced plans (0 or 1) and the symbols detected on the page.
func (p *Pipeline) processPage(job *mutationJob, pageNum int, pagePath, pageText string, bounds geometry.Rect, log *mutationLog) (int, []pageSymbol, error) {
	img, err := loadTIFF(pagePath)
	if err != nil {
		return 0, nil, err
	}
	bilevel, err := threshold.Page(img, p.cfg.Scan.DPI)
	if err != nil {
		return 0, nil, err
	}
	defer bilevel.Close()
	log.printf("page %d: threshold %g (otsu %g)", pageNum, bilevel.Threshold, bilevel.OtsuThreshold)

	png, err := gocv.IMEncode(gocv.PNGFileExt, bilevel.Page)
	if err != nil {
		return 0, nil, err
	}
	name := fmt.Sprintf("%s_%d.png", job.ID, pageNum)
	err = writeFileAtomic(filepath.Join(p.cfg.Paths.Workdir, "thresholded", name), png.GetBytes())
	png.Close()
	if err != nil {
		return 0, nil, err
	}

	params := symbol.DefaultParams().WithDPI(threshold.OutputDPI)
	symbols := symbol.Detect(bilevel.Page, params)
	log.printf("page %d: num_symbols: %d", pageNum, len(symbols))
	detections := make([]pageSymbol, len(symbols))
	for i, s := range symbols {
		detections[i] = pageSymbol{Page: pageNum, Symbol: s}
	}

	white := symbol.FilterWhite(symbols)
	if len(white) < minSymbols {
		log.printf("page %d: status: not enough symbols", pageNum)
		return 0, detections, nil
	}
	if ocr.IsScreenshot(pageText) {
		log.printf("page %d: status: screenshot", pageNum)
		return 0, detections, nil
	}

	ocrScales := ocr.ExtractScales(pageText)
	pageScale := 0
	if len(ocrScales) > 0 {
		pageScale = ocrScales[0]
	}
	region := survey.SearchRegion(bounds, pageScale,
		bilevel.Page.Cols(), bilevel.Page.Rows(), threshold.OutputDPI,
		p.cfg.Match.SearchFactor)
	candidates := p.dataset.CandidatesWithin(region, job.Date)
	log.printf("page %d: num_points: %d", pageNum, len(candidates))
	if len(candidates) < minSymbols {
		log.printf("page %d: status: could not match", pageNum)
		return 0, detections, nil
	}

	pointsData, err := encodePointsCSV(candidates)
	if err == nil {
		name := fmt.Sprintf("%s_%d.csv", job.ID, pageNum)
		err = writeFileAtomic(filepath.Join(p.cfg.Paths.Workdir, "points", name), pointsData)
	}
	if err != nil {
		return 0, nil, err
	}

	m, ok := match.FindTransform(white, candidates, threshold.OutputDPI, ocrScales, p.params)
	if !ok || m.Residual > p.params.PenaltyM/2 {
		log.printf("page %d: status: could not match", pageNum)
		return 0, detections, nil
	}
	log.printf("page %d: matched, scale 1:%d, residual %.2fm, %d correspondences",
		pageNum, m.Scale, m.Residual, m.Correspondences)

	base := fmt.Sprintf("%s_%d", job.ID, pageNum)
	err = writeFileAtomic(
		filepath.Join(p.cfg.Paths.Workdir, "georeferenced", base+".tfw"),
		encodeWorldFile(m.Transform))
	if err != nil {
		return 0, nil, err
	}
	gcData, err := encodeGroundControlCSV(pageNum, m)
	if err == nil {
		err = writeFileAtomic(
			filepath.Join(p.cfg.Paths.Workdir, "georeferenced", base+"_ground_control.csv"), gcData)
	}
	if err != nil {
		return 0, nil, err
	}
	return 1, detections, nil
}

// loadText reads the OCRed plaintext sidecar for a mutation, one page
// per form feed. When no sidecar exists, the pages are OCRed on the fly
// and the result is cached for the next run.
func (p *Pipeline) loadText(job *mutationJob, pages []string) ([]string, error) {
	textPath := filepath.Join(p.cfg.Paths.Text, job.ID+".txt")
	if data, err := os.ReadFile(textPath); err == nil {
		return strings.Split(string(data), "\f"), nil
	}

	engine, err := ocr.NewEngine()
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	text := make([]string, len(pages))
	for i, pagePath := range pages {
		img, err := loadTIFF(pagePath)
		if err != nil {
			return nil, err
		}
		bilevel, err := threshold.Page(img, p.cfg.Scan.DPI)
		if err != nil {
			return nil, err
		}
		pageText, err := engine.Recognize(bilevel.Page)
		bilevel.Close()
		if err != nil {
			return nil, err
		}
		text[i] = pageText
	}
	if err := writeFileAtomic(textPath, []byte(strings.Join(text, "\f"))); err != nil {
		return nil, err
	}
	return text, nil
}

// listPages returns the page image paths of a mutation's scans, in scan
// and page order.
func listPages(scanDirs []string) ([]string, error) {
	var pages []string
	for _, dir := range scanDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".tif") {
				names = append(names, e.Name())
			}
		}
		sort.Slice(names, func(i, j int) bool {
			return pageSortKey(names[i]) < pageSortKey(names[j])
		})
		for _, name := range names {
			pages = append(pages, filepath.Join(dir, name))
		}
	}
	return pages, nil
}

// pageSortKey orders "2.tif" before "10.tif".
func pageSortKey(name string) int {
	base := strings.TrimSuffix(name, ".tif")
	n, err := strconv.Atoi(base)
	if err != nil {
		return 1 << 30
	}
	return n
}

func loadTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// writeReport writes the final batch report, one row per mutation.
func (p *Pipeline) writeReport(results []Result) error {
	sort.Slice(results, func(i, j int) bool { return results[i].Mutation < results[j].Mutation })
	var sb strings.Builder
	sb.WriteString("mutation,status,pages,plans\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "%s,%s,%d,%d\n", r.Mutation, r.Status, r.Pages, r.Plans)
	}
	return writeFileAtomic(filepath.Join(p.cfg.Paths.Workdir, "report.csv"), []byte(sb.String()))
}
