package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/spf13/cobra"
)

func newUploadCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Send images or videos to the media host and print their URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]client.UploadFile, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, client.UploadFile{Name: filepath.Base(path), Data: data})
			}
			what := fmt.Sprintf("Enviar %d arquivo(s)", len(files))
			return c.confirm(c.ctx(cmd), what, func(ctx context.Context) error {
				res, err := c.api.Upload(ctx, files)
				if err != nil {
					return err
				}
				rows := [][]string{}
				for _, f := range res.Files {
					rows = append(rows, []string{f.OriginalName, f.Type, f.URL})
				}
				c.println(c.st.table([]string{"ARQUIVO", "TIPO", "URL"}, rows))
				return nil
			})
		},
	}
}
