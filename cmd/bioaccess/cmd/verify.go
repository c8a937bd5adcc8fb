package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/analuiza2102/bioaccess/capture"
	"github.com/analuiza2102/bioaccess/session"
)

var (
	verifyImage    string
	verifyLiveness bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <username>",
	Short: "Authenticate by face",
	Long: `Verifies identity against the enrolled biometric. The face comes from
an image file (--image) or the configured camera; --liveness takes two
sequential camera frames instead of one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		var user session.User
		var err error
		switch {
		case verifyLiveness:
			user, err = verifyWithLiveness(cmd, username)
		case verifyImage != "":
			var img capture.SingleImage
			if img, err = loadUpload(verifyImage); err != nil {
				return err
			}
			user, err = api.VerifyUpload(cmd.Context(), username, filepath.Base(verifyImage), img)
		default:
			var img capture.SingleImage
			if img, err = snapshot(cmd.Context()); err != nil {
				return err
			}
			user, err = api.VerifyCamera(cmd.Context(), username, img)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Verified as %s (%s, clearance %d)\n", user.Username, user.Role, user.Clearance)
		return nil
	},
}

func verifyWithLiveness(cmd *cobra.Command, username string) (session.User, error) {
	cam := capture.NewCamera(cameraDevice())
	defer cam.Stop()

	flow := capture.NewLivenessFlow(cam)
	for !flow.Complete() {
		fmt.Println(capture.StepInstruction(flow.Step()))
		if err := flow.CaptureNext(cmd.Context()); err != nil {
			return session.User{}, err
		}
	}
	pair, err := flow.Pair()
	if err != nil {
		return session.User{}, err
	}
	return api.VerifyLiveness(cmd.Context(), username, pair)
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyImage, "image", "", "Path to a JPEG or PNG face image")
	verifyCmd.Flags().BoolVar(&verifyLiveness, "liveness", false, "Capture two sequential camera frames")
}
