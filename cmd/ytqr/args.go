package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/ytqr/internal/config"
)

type genArgs struct {
	CLI    config.CLIArgs
	Inputs []string
}

func parseGenArgs(args []string) (genArgs, error) {
	ga := genArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			ga.Inputs = append(ga.Inputs, args[i+1:]...)
			break
		}
		ok, err := parseCommonFlag(args, &i, &ga.CLI)
		if err != nil {
			return genArgs{}, err
		}
		if ok {
			continue
		}

		switch {
		case a == "--out" || strings.HasPrefix(a, "--out="):
			v, err := flagValue(args, &i, "--out")
			if err != nil {
				return genArgs{}, err
			}
			if strings.TrimSpace(v) == "" {
				return genArgs{}, fmt.Errorf("--out 不能为空")
			}
			ga.CLI.Out, ga.CLI.OutSet = v, true
		case a == "--dry-run" || strings.HasPrefix(a, "--dry-run="):
			v, err := boolFlag(a, "--dry-run")
			if err != nil {
				return genArgs{}, err
			}
			ga.CLI.DryRun, ga.CLI.DryRunSet = v, true
		case strings.HasPrefix(a, "-") && a != "-":
			return genArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			ga.Inputs = append(ga.Inputs, a)
		}
	}

	return ga, nil
}

func parseServeArgs(args []string) (config.CLIArgs, error) {
	cli := config.CLIArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		ok, err := parseCommonFlag(args, &i, &cli)
		if err != nil {
			return config.CLIArgs{}, err
		}
		if ok {
			continue
		}

		switch {
		case a == "--listen" || strings.HasPrefix(a, "--listen="):
			v, err := flagValue(args, &i, "--listen")
			if err != nil {
				return config.CLIArgs{}, err
			}
			if strings.TrimSpace(v) == "" {
				return config.CLIArgs{}, fmt.Errorf("--listen 不能为空")
			}
			cli.Listen, cli.ListenSet = v, true
		default:
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		}
	}

	return cli, nil
}

// parseCommonFlag 处理 gen/serve 共用的参数；返回 false 表示不是共用参数。
func parseCommonFlag(args []string, i *int, cli *config.CLIArgs) (bool, error) {
	a := args[*i]
	switch {
	case a == "--size" || strings.HasPrefix(a, "--size="):
		v, err := flagValue(args, i, "--size")
		if err != nil {
			return true, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return true, fmt.Errorf("--size 必须是整数，实际是 %q", v)
		}
		cli.Size, cli.SizeSet = n, true
	case a == "--level" || strings.HasPrefix(a, "--level="):
		v, err := flagValue(args, i, "--level")
		if err != nil {
			return true, err
		}
		switch strings.ToUpper(v) {
		case "L", "M", "Q", "H":
		default:
			return true, fmt.Errorf("--level 只能是 L、M、Q 或 H，实际是 %q", v)
		}
		cli.Level, cli.LevelSet = strings.ToUpper(v), true
	case a == "--thumbnail" || strings.HasPrefix(a, "--thumbnail="):
		v, err := boolFlag(a, "--thumbnail")
		if err != nil {
			return true, err
		}
		cli.Thumbnail, cli.ThumbnailSet = v, true
	case a == "--title" || strings.HasPrefix(a, "--title="):
		v, err := boolFlag(a, "--title")
		if err != nil {
			return true, err
		}
		cli.FetchTitle, cli.FetchTitleSet = v, true
	case a == "--log-level" || strings.HasPrefix(a, "--log-level="):
		v, err := flagValue(args, i, "--log-level")
		if err != nil {
			return true, err
		}
		cli.LogLevel, cli.LogLevelSet = v, true
	default:
		return false, nil
	}
	return true, nil
}

// flagValue 同时支持 "--name value" 与 "--name=value"。
func flagValue(args []string, i *int, name string) (string, error) {
	a := args[*i]
	if strings.HasPrefix(a, name+"=") {
		return strings.TrimPrefix(a, name+"="), nil
	}
	if *i+1 >= len(args) {
		return "", fmt.Errorf("%s 需要一个值", name)
	}
	*i++
	return args[*i], nil
}

// boolFlag：裸 "--name" 为 true；"--name=true|false" 显式指定。
func boolFlag(a, name string) (bool, error) {
	if a == name {
		return true, nil
	}
	v := strings.TrimPrefix(a, name+"=")
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, v)
	}
}
