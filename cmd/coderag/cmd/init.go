package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/coderag/configs"
	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/output"
)

// projectConfigName is the file `coderag init` writes in the project root.
const projectConfigName = ".coderag.yaml"

func newInitCmd(o *rootOptions) *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration",
		Long: `Write a commented .coderag.yaml to the project root and add the cache
directory to .gitignore. With --user, write the machine-wide config to
~/.config/coderag/config.yaml instead.

Existing files are left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.NewWithColor(cmd.OutOrStdout(), !o.noColor && output.ColorEnabled(cmd.OutOrStdout()))
			if user {
				return writeTemplate(out, config.GetUserConfigPath(), configs.UserConfigTemplate, force)
			}

			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			root, err := filepath.Abs(root)
			if err != nil {
				return cerrors.InvalidArgument("invalid project path %q: %v", root, err)
			}
			if info, err := os.Stat(root); err != nil || !info.IsDir() {
				return cerrors.InvalidArgument("%s is not a directory", root)
			}

			if err := writeTemplate(out, filepath.Join(root, projectConfigName), configs.ProjectConfigTemplate, force); err != nil {
				return err
			}
			added, err := ensureGitignore(root, config.DefaultCacheDir)
			if err != nil {
				out.Warningf("Could not update .gitignore: %v", err)
				return nil
			}
			if added {
				out.Successf("Added %s/ to .gitignore", config.DefaultCacheDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")
	return cmd
}

func writeTemplate(out *output.Writer, path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return cerrors.New(cerrors.ErrCodeInvalidArgument, path+" already exists", nil).
			WithSuggestion("Use --force to overwrite it")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to create config directory", err).
			WithDetail("path", path)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return cerrors.New(cerrors.ErrCodeFileWrite, "failed to write config", err).
			WithDetail("path", path)
	}
	out.Successf("Created %s", path)
	return nil
}

// hasIgnoreEntry reports whether content already ignores dir, with or
// without leading and trailing slashes.
func hasIgnoreEntry(content, dir string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Trim(line, "/") == dir {
			return true
		}
	}
	return false
}

// ensureGitignore appends dir/ to the project's .gitignore unless it is
// already there. It reports whether the file changed.
func ensureGitignore(root, dir string) (bool, error) {
	path := filepath.Join(root, ".gitignore")

	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("reading .gitignore: %w", err)
	}
	if hasIgnoreEntry(string(content), dir) {
		return false, nil
	}

	eol := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		eol = "\r\n"
	}
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, eol...)
	}
	if len(content) > 0 {
		content = append(content, eol...)
	}
	content = append(content, "# coderag index data"+eol+dir+"/"+eol...)

	if err := os.WriteFile(path, content, 0644); err != nil {
		return false, fmt.Errorf("writing .gitignore: %w", err)
	}
	return true, nil
}
