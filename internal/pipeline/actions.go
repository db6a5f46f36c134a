package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/propertypartner/social-pipeline/models"
	"github.com/propertypartner/social-pipeline/pkg/copygen"
	"github.com/propertypartner/social-pipeline/pkg/images"
	"github.com/propertypartner/social-pipeline/pkg/meta"
	"github.com/propertypartner/social-pipeline/pkg/remote"
	"github.com/propertypartner/social-pipeline/pkg/staging"
)

func loadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	return cfg, nil
}

// RunAction is the full URL-to-published-posts pipeline.
func RunAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	pageURL := c.Args().First()
	if pageURL == "" {
		return cli.Exit("usage: social-pipeline run <trademe listing URL>", 1)
	}

	posts, results, err := Run(c.Context, logger, cfg, pageURL)
	if posts != nil {
		fmt.Printf("\n--- Facebook ---\n%s\n", posts.Facebook)
		fmt.Printf("\n--- Instagram ---\n%s\n", posts.Instagram)
	}
	if err != nil {
		if posts != nil {
			fmt.Println("\nPublishing failed, but the generated copy above can be posted manually.")
		}
		return cli.Exit(err.Error(), 1)
	}

	if fb := results["facebook"]; fb != nil {
		id := fb.PostID
		if id == "" {
			id = fb.ID
		}
		fmt.Printf("\nFacebook: https://facebook.com/%s\n", id)
	}
	if ig := results["instagram"]; ig != nil {
		fmt.Printf("Instagram: %s\n", ig.ID)
	}
	return nil
}

// ScrapeAction renders and extracts one listing and prints the record.
func ScrapeAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	pageURL := c.Args().First()
	if pageURL == "" {
		return cli.Exit("usage: social-pipeline scrape <trademe listing URL>", 1)
	}

	listing, err := ScrapeListing(c.Context, logger, cfg, pageURL)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var out []byte
	switch c.String("format") {
	case "yaml":
		out, err = yaml.Marshal(listing)
	default:
		out, err = json.MarshalIndent(listing, "", "  ")
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Println(string(out))
	return nil
}

// ImagesAction runs the image pipeline for explicit URLs, optionally
// uploading the staged directory afterwards.
func ImagesAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	listingID := c.String("listing-id")
	urls := splitList(c.String("urls"))
	if listingID == "" || len(urls) == 0 {
		return cli.Exit("both --listing-id and --urls are required", 1)
	}

	prepared, err := images.NewPipeline(logger).SelectAndPrepare(
		c.Context, urls, listingID, cfg.ImageLocalDir,
		images.Options{HostURLBase: cfg.ImageHostURL})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if c.Bool("upload") {
		transfer := remote.NewTransfer(cfg.RemoteHost, cfg.RemoteImageDir, cfg.ImageLocalDir, logger)
		if err := transfer.UploadDir(c.Context, staging.DirName(listingID)); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	out, _ := json.MarshalIndent(prepared, "", "  ")
	fmt.Println(string(out))
	return nil
}

// CopyAction generates posts from a listing record read as JSON from a
// file or stdin.
func CopyAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.AnthropicAPIKey == "" {
		return cli.Exit("ANTHROPIC_API_KEY is required", 2)
	}

	var data []byte
	if path := c.String("listing"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var listing models.ListingRecord
	if err := json.Unmarshal(data, &listing); err != nil {
		return cli.Exit(fmt.Sprintf("invalid listing JSON: %v", err), 1)
	}

	posts, err := copygen.NewGenerator(cfg.AnthropicAPIKey).Generate(c.Context, &listing)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out, _ := json.MarshalIndent(posts, "", "  ")
	fmt.Println(string(out))
	return nil
}

// PublishAction posts already-hosted image URLs with given captions.
func PublishAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	urls := splitList(c.String("image-urls"))
	if len(urls) == 0 {
		return cli.Exit("--image-urls is required", 1)
	}
	fbCaption := c.String("facebook")
	igCaption := c.String("instagram")
	if fbCaption == "" && igCaption == "" {
		return cli.Exit("at least one of --facebook or --instagram is required", 1)
	}

	client := meta.NewClient(cfg.FBPageID, cfg.IGUserID, cfg.MetaPageToken, logger)
	defer client.Close()

	if fbCaption != "" {
		result, err := client.PostFacebook(c.Context, urls, fbCaption)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("facebook: %s\n", firstNonEmpty(result.PostID, result.ID))
	}
	if igCaption != "" {
		result, err := client.PostInstagram(c.Context, urls, igCaption)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("instagram: %s\n", result.ID)
	}
	return nil
}

// CleanupAction removes staged images, locally and optionally from the
// remote host.
func CleanupAction(c *cli.Context) error {
	logger := NewLogger(c.Bool("quiet"))
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	mgr, err := staging.NewManager(cfg.ImageLocalDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	listingID := c.String("listing-id")
	if listingID == "" {
		if err := mgr.CleanupAll(); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Println("removed all local staging dirs")
		return nil
	}

	dirName := staging.DirName(listingID)
	if err := mgr.CleanupListing(dirName); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.Bool("remote") {
		transfer := remote.NewTransfer(cfg.RemoteHost, cfg.RemoteImageDir, cfg.ImageLocalDir, logger)
		if err := transfer.DeleteRemoteDir(c.Context, dirName); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	fmt.Printf("removed %s\n", dirName)
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
