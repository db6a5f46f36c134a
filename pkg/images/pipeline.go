package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/propertypartner/social-pipeline/models"
	"github.com/propertypartner/social-pipeline/pkg/staging"
)

// Quality gates for downloaded photos. Payloads under MinBytes are
// almost always placeholders or broken CDN responses; tiny dimensions
// produce unusable upscales.
const (
	MinBytes    = 5000
	MinWidth    = 400
	MinHeight   = 300
	JPEGQuality = 92
	MaxImages   = 20

	fetchTimeout = 30 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var listingIDPattern = regexp.MustCompile(`^\d+$`)

// Pipeline downloads a listing's photos, scores them, keeps the best
// and stages platform-shaped JPEGs on the local filesystem.
type Pipeline struct {
	client *http.Client
	logger *slog.Logger
}

// NewPipeline returns a Pipeline with a bounded-timeout HTTP client
// shared across all downloads.
func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// Options tunes SelectAndPrepare. Zero values mean: keep up to
// MaxImages, leave PublicURL empty for the caller to fill after upload.
type Options struct {
	MaxImages   int
	HostURLBase string
}

// fetchResult is the typed per-URL outcome of the concurrent download
// phase. Exactly one of img/err is meaningful; both nil means the
// payload was rejected by a quality gate.
type fetchResult struct {
	img image.Image
	err error
}

// candidate pairs a surviving image with its score and original input
// position, which is the tie-break when scores are equal.
type candidate struct {
	img   image.Image
	score float64
	url   string
	index int
}

// SelectAndPrepare downloads every URL concurrently, drops failures and
// low-quality payloads, ranks the survivors by Score, truncates to the
// image budget and writes Instagram-shaped JPEGs named photo_{rank}.jpg
// into {localDir}/tm-{listingID}/. Per-URL failures never abort the
// batch; an empty or fully rejected input yields empty hero/carousel.
func (p *Pipeline) SelectAndPrepare(ctx context.Context, imageURLs []string, listingID, localDir string, opts Options) (*models.PreparedImages, error) {
	if !listingIDPattern.MatchString(listingID) {
		return nil, &InvalidListingIDError{ID: listingID}
	}

	maxImages := opts.MaxImages
	if maxImages <= 0 {
		maxImages = MaxImages
	}

	dirName := staging.DirName(listingID)
	listingDir := filepath.Join(localDir, dirName)
	if err := os.MkdirAll(listingDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	// Fan out one goroutine per URL; results land at the URL's input
	// index so candidate order (and the tie-break) stays deterministic.
	results := make([]fetchResult, len(imageURLs))
	var wg sync.WaitGroup
	for i, rawURL := range imageURLs {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			img, err := p.fetchAndValidate(ctx, rawURL)
			results[i] = fetchResult{img: img, err: err}
		}(i, rawURL)
	}
	wg.Wait()

	var candidates []candidate
	for i, res := range results {
		if res.err != nil {
			p.logger.Warn("Image download failed", "url", imageURLs[i], "error", res.err)
			continue
		}
		if res.img == nil {
			p.logger.Debug("Image rejected by quality gates", "url", imageURLs[i])
			continue
		}
		b := res.img.Bounds()
		candidates = append(candidates, candidate{
			img:   res.img,
			score: Score(b.Dx(), b.Dy()),
			url:   imageURLs[i],
			index: i,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxImages {
		candidates = candidates[:maxImages]
	}

	processed := make([]models.ProcessedImage, 0, len(candidates))
	for rank, c := range candidates {
		resized, err := ResizeForPlatform(c.img, "instagram")
		if err != nil {
			return nil, err
		}

		filename := fmt.Sprintf("photo_%d.jpg", rank+1)
		savePath := filepath.Join(listingDir, filename)
		if err := imaging.Save(resized, savePath, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", savePath, err)
		}

		publicURL := ""
		if opts.HostURLBase != "" {
			publicURL = strings.TrimRight(opts.HostURLBase, "/") + "/" + dirName + "/" + filename
		}

		processed = append(processed, models.ProcessedImage{
			LocalPath: savePath,
			PublicURL: publicURL,
			Score:     c.score,
		})
	}

	prepared := &models.PreparedImages{Carousel: processed}
	if len(processed) > 0 {
		prepared.Hero = processed[:1]
	}
	return prepared, nil
}

// fetchAndValidate downloads one image and applies the quality gates.
// A (nil, nil) return means the payload was rejected, not that the
// fetch failed. Paletted and alpha images are normalized to opaque RGB
// during decode cloning, so every candidate JPEG-encodes cleanly.
func (p *Pipeline) fetchAndValidate(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) < MinBytes {
		return nil, nil
	}

	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() < MinWidth || b.Dy() < MinHeight {
		return nil, nil
	}

	return imaging.Clone(img), nil
}
