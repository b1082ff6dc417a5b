package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/apikit/httpclient/rest"
)

func newUploadCmd(o *rootOptions) *cobra.Command {
	var (
		fields   []string
		files    []string
		noAuth   bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "upload <endpoint>",
		Short: "Upload files as multipart/form-data",
		Example: `  # Upload an avatar with a caption
  apikit upload profile/avatar --file avatar=./me.png -f caption=hello

  # Show upload progress on stderr
  apikit upload documents --file cv=./cv.pdf --progress`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts, err := uploadFields(fields, files)
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}

			var opts []rest.CallOption
			if noAuth {
				opts = append(opts, rest.WithoutAuthorization())
			}

			task := rest.UploadAsync[json.RawMessage](cmd.Context(), c, args[0], parts, opts...)
			errOut := cmd.ErrOrStderr()
			for fraction := range task.Progress() {
				if progress {
					fmt.Fprintf(errOut, "\ruploading %3.0f%%", fraction*100)
				}
			}
			if progress {
				fmt.Fprintln(errOut)
			}

			res := task.Wait()
			if res.Err != nil {
				return res.Err
			}
			return writeJSON(cmd.OutOrStdout(), res.Envelope, o.jq)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&fields, "field", "f", nil, "text part as key=value")
	f.StringArrayVar(&files, "file", nil, "file part as name=path")
	f.BoolVar(&noAuth, "no-auth", false, "omit the access token")
	f.BoolVar(&progress, "progress", false, "print upload progress to stderr")
	return cmd
}

// uploadFields builds the multipart fields from the command line.
func uploadFields(fields, files []string) (rest.Fields, error) {
	out := rest.Fields{}
	for _, pair := range fields {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("field %q must be key=value", pair)
		}
		out[key] = value
	}
	for _, pair := range files {
		name, path, ok := strings.Cut(pair, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("file %q must be name=path", pair)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out[name] = rest.NewMediaField(data, mediaKind(path, data), filepath.Base(path))
	}
	return out, nil
}

// mediaKind trusts a known image or video extension and sniffs the content
// otherwise.
func mediaKind(path string, data []byte) rest.MediaKind {
	switch {
	case rest.IsImageFile(path):
		return rest.MediaImage
	case rest.IsVideoFile(path):
		return rest.MediaVideo
	}
	kind, _ := rest.DetectMedia(data)
	return kind
}
