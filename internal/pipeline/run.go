// Package pipeline wires the extraction, image, copy and publish
// stages behind the CLI commands. The full run keeps every
// intermediate artifact reachable on failure: once captions exist they
// are printed even when publishing dies afterwards.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/propertypartner/social-pipeline/models"
	"github.com/propertypartner/social-pipeline/pkg/copygen"
	"github.com/propertypartner/social-pipeline/pkg/images"
	"github.com/propertypartner/social-pipeline/pkg/meta"
	"github.com/propertypartner/social-pipeline/pkg/remote"
	"github.com/propertypartner/social-pipeline/pkg/render"
	"github.com/propertypartner/social-pipeline/pkg/staging"
	"github.com/propertypartner/social-pipeline/pkg/trademe"
)

// NewLogger builds the process logger the way every command uses it:
// JSON to stderr, quiet mode raising the level to errors only.
func NewLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// renderCacheTTL bounds how stale a cached page render may be; listing
// photo sets rarely change within a session, but prices can.
const renderCacheTTL = 15 * time.Minute

// ScrapeListing renders the page and extracts the listing record.
// Renders are cached so a scrape preview followed by a full run only
// drives the browser once.
func ScrapeListing(ctx context.Context, logger *slog.Logger, cfg *models.Config, pageURL string) (*models.ListingRecord, error) {
	safeURL, err := trademe.ValidateListingURL(pageURL)
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(logger)
	if cfg.RenderCacheDir != "" {
		if cache, cErr := render.NewPageCache(cfg.RenderCacheDir, renderCacheTTL); cErr == nil {
			renderer = renderer.WithCache(cache)
		} else {
			logger.Warn("Render cache unavailable", "dir", cfg.RenderCacheDir, "error", cErr)
		}
	}

	html, err := renderer.Render(ctx, safeURL)
	if err != nil {
		return nil, err
	}

	listing, err := trademe.Extract(safeURL, html)
	if err != nil {
		return nil, err
	}

	logger.Info("Listing extracted",
		"listing_id", listing.ListingID,
		"title", listing.Title,
		"price", listing.Price,
		"images", len(listing.Images))
	return listing, nil
}

// Run drives the whole pipeline for one listing URL: scrape, prepare
// and upload images, generate copy, publish to both platforms, then
// clean up staging. Returns the generated posts alongside any error so
// the CLI can surface captions for manual use when publishing fails.
func Run(ctx context.Context, logger *slog.Logger, cfg *models.Config, pageURL string) (*models.SocialPosts, map[string]*meta.PostResult, error) {
	listing, err := ScrapeListing(ctx, logger, cfg, pageURL)
	if err != nil {
		return nil, nil, err
	}
	if len(listing.Images) == 0 {
		return nil, nil, fmt.Errorf("no images found for listing %s — cannot publish", listing.ListingID)
	}

	prepared, err := images.NewPipeline(logger).SelectAndPrepare(
		ctx, listing.Images, listing.ListingID, cfg.ImageLocalDir,
		images.Options{HostURLBase: cfg.ImageHostURL})
	if err != nil {
		return nil, nil, err
	}
	if len(prepared.Carousel) == 0 {
		return nil, nil, fmt.Errorf("no usable images survived for listing %s", listing.ListingID)
	}
	logger.Info("Images prepared",
		"count", len(prepared.Carousel), "hero_score", prepared.Hero[0].Score)

	dirName := staging.DirName(listing.ListingID)
	transfer := remote.NewTransfer(cfg.RemoteHost, cfg.RemoteImageDir, cfg.ImageLocalDir, logger)
	if err := transfer.UploadDir(ctx, dirName); err != nil {
		return nil, nil, err
	}

	posts, err := copygen.NewGenerator(cfg.AnthropicAPIKey).Generate(ctx, listing)
	if err != nil {
		return nil, nil, err
	}

	imageURLs := make([]string, len(prepared.Carousel))
	for i, img := range prepared.Carousel {
		imageURLs[i] = img.PublicURL
	}

	client := meta.NewClient(cfg.FBPageID, cfg.IGUserID, cfg.MetaPageToken, logger)
	defer client.Close()

	results := map[string]*meta.PostResult{}

	fbResult, err := client.PostFacebook(ctx, imageURLs, posts.Facebook)
	if err != nil {
		return posts, results, err
	}
	results["facebook"] = fbResult
	logger.Info("Facebook post published", "post_id", fbResult.PostID, "id", fbResult.ID)

	igResult, err := client.PostInstagram(ctx, imageURLs, posts.Instagram)
	if err != nil {
		return posts, results, err
	}
	results["instagram"] = igResult
	logger.Info("Instagram post published", "id", igResult.ID)

	// Published posts reference Meta's own copies of the media, so the
	// staged files have served their purpose.
	if mgr, mErr := staging.NewManager(cfg.ImageLocalDir); mErr == nil {
		if cErr := mgr.CleanupListing(dirName); cErr != nil {
			logger.Warn("Local staging cleanup failed", "dir", dirName, "error", cErr)
		}
	}
	if cErr := transfer.DeleteRemoteDir(ctx, dirName); cErr != nil {
		logger.Warn("Remote cleanup failed", "dir", dirName, "error", cErr)
	}

	return posts, results, nil
}
