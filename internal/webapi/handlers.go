package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/propertypartner/social-pipeline/internal/pipeline"
	"github.com/propertypartner/social-pipeline/models"
	"github.com/propertypartner/social-pipeline/pkg/copygen"
	"github.com/propertypartner/social-pipeline/pkg/images"
	"github.com/propertypartner/social-pipeline/pkg/meta"
	"github.com/propertypartner/social-pipeline/pkg/remote"
	"github.com/propertypartner/social-pipeline/pkg/staging"
)

type scrapeRequest struct {
	URL string `json:"url"`
}

type imagesRequest struct {
	ImageURLs []string `json:"image_urls"`
	ListingID string   `json:"listing_id"`
}

type copyRequest struct {
	Listing models.ListingRecord `json:"listing"`
}

type publishRequest struct {
	FacebookCaption  *string  `json:"facebook_caption"`
	InstagramCaption *string  `json:"instagram_caption"`
	ImageURLs        []string `json:"image_urls"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stream.progress("scraping", "Connecting to TradeMe...")
	listing, err := pipeline.ScrapeListing(r.Context(), s.logger, s.cfg, req.URL)
	if err != nil {
		stream.fail(err)
		return
	}
	stream.progress("scraping", fmt.Sprintf("Found %d images", len(listing.Images)))
	stream.send("complete", map[string]any{"listing": listing})
}

type publicImage struct {
	PublicURL string  `json:"public_url"`
	Score     float64 `json:"score"`
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var req imagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stream.progress("images", fmt.Sprintf("Downloading %d images...", len(req.ImageURLs)))
	prepared, err := images.NewPipeline(s.logger).SelectAndPrepare(
		r.Context(), req.ImageURLs, req.ListingID, s.cfg.ImageLocalDir, images.Options{})
	if err != nil {
		stream.fail(err)
		return
	}

	dirName := staging.DirName(req.ListingID)
	stream.progress("images", "Uploading to server...")
	transfer := remote.NewTransfer(s.cfg.RemoteHost, s.cfg.RemoteImageDir, s.cfg.ImageLocalDir, s.logger)
	if err := transfer.UploadDir(r.Context(), dirName); err != nil {
		stream.fail(err)
		return
	}
	s.markManaged(dirName)

	// Return server URLs with a cache-bust param so a re-run of the
	// same listing never shows stale images in the preview.
	bust := time.Now().Unix()
	publicURL := func(rank int) string {
		return fmt.Sprintf("%s/%s/photo_%d.jpg?v=%d", s.cfg.ImageHostURL, dirName, rank, bust)
	}
	serialized := map[string][]publicImage{"hero": {}, "carousel": {}}
	for i, img := range prepared.Carousel {
		serialized["carousel"] = append(serialized["carousel"], publicImage{PublicURL: publicURL(i + 1), Score: img.Score})
	}
	if len(prepared.Hero) > 0 {
		serialized["hero"] = serialized["carousel"][:1]
	}

	// Local staging is done once the images are on the host.
	if err := s.mgr.CleanupListing(dirName); err != nil {
		s.logger.Warn("Local staging cleanup failed", "dir", dirName, "error", err)
	}

	stream.progress("images", fmt.Sprintf("Prepared %d images", len(prepared.Carousel)))
	stream.send("complete", map[string]any{"images": serialized})
}

func (s *Server) handleGenerateCopy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	posts, err := copygen.NewGenerator(s.cfg.AnthropicAPIKey).Generate(r.Context(), &req.Listing)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, posts)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.cfg.RequireCredentials(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	listingDir := s.cleanupCandidate(req.ImageURLs)

	client := meta.NewClient(s.cfg.FBPageID, s.cfg.IGUserID, s.cfg.MetaPageToken, s.logger)
	published := false
	defer func() {
		client.Close()
		// Keep the hosted images around after a failed publish so the
		// user can retry without re-staging. The request context is
		// gone by the time this runs, so cleanup gets its own.
		if listingDir == "" || !published {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		transfer := remote.NewTransfer(s.cfg.RemoteHost, s.cfg.RemoteImageDir, s.cfg.ImageLocalDir, s.logger)
		if err := transfer.DeleteRemoteDir(ctx, listingDir); err != nil {
			s.logger.Warn("Remote cleanup failed", "dir", listingDir, "error", err)
		} else {
			s.unmarkManaged(listingDir)
		}
	}()

	results := map[string]*meta.PostResult{}
	if req.FacebookCaption != nil {
		result, err := client.PostFacebook(r.Context(), req.ImageURLs, *req.FacebookCaption)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		results["facebook"] = result
	}
	if req.InstagramCaption != nil {
		result, err := client.PostInstagram(r.Context(), req.ImageURLs, *req.InstagramCaption)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		results["instagram"] = result
	}
	published = true
	writeJSON(w, results)
}

// cleanupCandidate decides whether the publish request's image URLs
// identify exactly one staging dir this process manages. Mixed,
// foreign or unmanaged dirs all disable cleanup rather than guessing.
func (s *Server) cleanupCandidate(imageURLs []string) string {
	if len(imageURLs) == 0 {
		return ""
	}
	dirs := map[string]bool{}
	for _, u := range imageURLs {
		dir := s.listingDirFromPublicURL(u)
		if dir == "" {
			return ""
		}
		dirs[dir] = true
	}
	if len(dirs) != 1 {
		s.logger.Warn("Skipping remote cleanup due to mixed listing dirs")
		return ""
	}
	var dir string
	for d := range dirs {
		dir = d
	}
	if !s.isManaged(dir) {
		s.logger.Warn("Skipping remote cleanup for unmanaged listing dir", "dir", dir)
		return ""
	}
	return dir
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
