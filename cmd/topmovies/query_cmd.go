package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/topmovies/internal/config"
	"github.com/John-Robertt/topmovies/internal/query"
)

type queryOptions struct {
	dbPath string
	asJSON bool
}

func newQueryCmd(root *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <sql> [params...]",
		Short: "对 SQLite 输出执行一条语句（params 按 ? 顺序绑定）",
		Example: `  topmovies query 'SELECT * FROM Best_movies'
  topmovies query 'SELECT Title FROM Best_movies WHERE Rate > ?' 9`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := opts.dbPath
			if !cmd.Flags().Changed("db") {
				cwd, err := os.Getwd()
				if err != nil {
					return &exitError{code: 1, err: err}
				}
				eff, err := config.LoadEffective(cwd, config.CLIArgs{ConfigPath: root.configPath})
				if err != nil {
					return &exitError{code: 1, err: err}
				}
				dbPath = eff.DBPath
			}

			params := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				params = append(params, a)
			}

			tbl, err := query.Run(cmd.Context(), dbPath, args[0], params...)
			if err != nil {
				return &exitError{code: 1, err: errors.New(query.Status(err))}
			}
			if opts.asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"columns": tbl.Columns, "rows": tbl.Rows})
			}
			return tbl.Render(stdout)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite 文件路径（默认取配置中的 db_file）")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 输出结果")
	return cmd
}
