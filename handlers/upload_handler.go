package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
)

const evidenceFolder = "xavicoins_evidences"

// UploadHandler hands out signed parameters so clients upload evidence
// files straight to Cloudinary.
type UploadHandler struct {
	CloudinaryURL string
	Now           func() time.Time
}

func (h *UploadHandler) EvidenceUploadSignature(c *fiber.Ctx) error {
	activityID, err := paramUUID(c, "activityId")
	if err != nil {
		return err
	}
	studentID, err := currentUser(c)
	if err != nil {
		return err
	}

	cld, err := cloudinary.NewFromURL(h.CloudinaryURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initialize Cloudinary"})
	}
	parsedURL, err := url.Parse(h.CloudinaryURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse Cloudinary URL"})
	}
	secret, _ := parsedURL.User.Password()

	folder := fmt.Sprintf("%s/%s", evidenceFolder, activityID)
	publicID := studentID.String()
	paramsToSign, err := api.StructToParams(uploader.UploadParams{
		Folder:   folder,
		PublicID: publicID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to prepare signature params"})
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	timestamp := now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign upload params"})
	}

	return c.JSON(fiber.Map{
		"signature":  signature,
		"timestamp":  timestamp,
		"api_key":    cld.Config.Cloud.APIKey,
		"cloud_name": cld.Config.Cloud.CloudName,
		"folder":     folder,
		"public_id":  publicID,
	})
}
