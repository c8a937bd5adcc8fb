package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/analuiza2102/bioaccess/capture"
)

var (
	enrollImage  string
	enrollCamera bool
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <username>",
	Short: "Enroll a face for an existing account",
	Long: `Registers a biometric template for an account. The face comes either
from an image file (--image) or from the configured camera (--camera).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		switch {
		case enrollCamera:
			img, err := snapshot(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := api.Enroll(cmd.Context(), username, img)
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
		case enrollImage != "":
			img, err := loadUpload(enrollImage)
			if err != nil {
				return err
			}
			resp, err := api.EnrollUpload(cmd.Context(), username, filepath.Base(enrollImage), img)
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
		default:
			return fmt.Errorf("one of --image or --camera is required")
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <username>",
	Short: "Check whether an account has an enrolled face",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := api.CheckBiometric(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(status.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrollCmd, checkCmd)
	enrollCmd.Flags().StringVar(&enrollImage, "image", "", "Path to a JPEG or PNG face image")
	enrollCmd.Flags().BoolVar(&enrollCamera, "camera", false, "Capture the face from the configured camera")
}

// loadUpload reads and validates a file the way the remote authority will.
func loadUpload(path string) (capture.SingleImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return capture.SingleImage{}, fmt.Errorf("reading %s: %w", path, err)
	}
	img, err := capture.ValidateUpload(data)
	if err != nil {
		return capture.SingleImage{}, err
	}
	return img, nil
}

// snapshot takes a single frame from the configured camera.
func snapshot(ctx context.Context) (capture.SingleImage, error) {
	cam := capture.NewCamera(cameraDevice())
	if err := cam.Start(ctx); err != nil {
		return capture.SingleImage{}, err
	}
	defer cam.Stop()
	return cam.Capture(ctx)
}
