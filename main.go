// 命令行入口：
// - 解析 flags、位置参数 [工作目录] [查询] 与 settings.yaml/rules.yaml
// - 初始化日志、HTTP 客户端、排除列表与过滤规则
// - 运行一轮跟踪（或 -verify 重新校验接受台账），写入台账与检查点
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"go-link-tracker/internal/checkpoint"
	"go-link-tracker/internal/config"
	"go-link-tracker/internal/exclusion"
	"go-link-tracker/internal/export"
	"go-link-tracker/internal/fetch"
	"go-link-tracker/internal/filter"
	"go-link-tracker/internal/ledger"
	"go-link-tracker/internal/logx"
	"go-link-tracker/internal/metrics"
	"go-link-tracker/internal/pipeline"
	"go-link-tracker/internal/resolve"
	"go-link-tracker/internal/rules"
	"go-link-tracker/internal/source"
	"go-link-tracker/internal/verify"
)

// 退出码
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = -1
	exitNothingToDo = -2
)

const (
	defaultSettings  = "settings.yaml"
	defaultRulesFile = "rules.yaml"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to settings.yaml (default: <workdir>/settings.yaml, optional)")
		rulesPath  = fs.String("rules", "", "path to rules.yaml (default: <workdir>/rules.yaml, optional)")
		exportPath = fs.String("export", "report.json", "JSON report path when DRY_RUN=true")
		verifyMode = fs.Bool("verify", false, "re-resolve the accept ledger with keyword verification and exit")
		dryRun     = fs.Bool("dry-run", false, "buffer ledger lines in memory; keep the checkpoint and the stored raw batch")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] [workdir] [query]\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUsage
	}
	if fs.NArg() > 2 {
		fs.Usage()
		return exitUsage
	}
	workdir := "."
	if fs.NArg() > 0 {
		workdir = fs.Arg(0)
	}

	// 1) 加载配置：显式指定的配置文件必须存在
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadOrDefault(filepath.Join(workdir, defaultSettings))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitUsage
	}
	cfg.Workdir = workdir
	if fs.NArg() > 1 {
		cfg.Query = fs.Arg(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}

	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)
	runID := uuid.NewString()
	logx.Infof("运行 %s：工作目录=%s 查询=%q dry-run=%v", runID, workdir, cfg.Query, cfg.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) 链接解析：单次请求、不跟随重定向
	hosts, err := exclusion.Load(cfg.File(cfg.Files.ExcludedHosts))
	if err != nil {
		logx.Errorf("加载排除主机失败：%v", err)
		return exitFailure
	}
	hopClient, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Resolver.Timeout,
		UserAgent:  cfg.Resolver.UserAgent,
	})
	if err != nil {
		logx.Errorf("初始化 HTTP 客户端失败：%v", err)
		return exitFailure
	}
	res := resolve.New(hopClient, hosts, resolve.Options{MaxHops: cfg.Resolver.MaxHops, Keywords: cfg.Resolver.Keywords})

	if *verifyMode {
		return runVerify(ctx, cfg, res)
	}

	// 4) 过滤规则：排除账号与包含/排除正则
	handles, err := exclusion.Load(cfg.File(cfg.Files.ExcludedHandles))
	if err != nil {
		logx.Errorf("加载排除账号失败：%v", err)
		return exitFailure
	}
	terms, err := exclusion.LoadTerms(cfg.File(cfg.Files.ExcludedTerms))
	if err != nil {
		logx.Errorf("加载排除词失败：%v", err)
		return exitFailure
	}
	include, err := filter.CompileInclude(cfg.Query)
	if err != nil {
		logx.Errorf("编译包含规则失败：%v", err)
		return exitFailure
	}
	exclude, err := filter.CompileExclude(terms)
	if err != nil {
		logx.Errorf("编译排除规则失败：%v", err)
		return exitFailure
	}
	logx.Infof("排除账号=%d 排除主机=%d 排除词=%d", handles.Len(), hosts.Len(), len(terms))

	// 5) 帖子来源：在线拉取或重放
	srcClient, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Source.Timeout,
		Retry:      cfg.Source.Retry,
	})
	if err != nil {
		logx.Errorf("初始化 HTTP 客户端失败：%v", err)
		return exitFailure
	}
	src, err := source.Open(srcClient, source.Options{
		Query:        cfg.Query,
		Template:     cfg.Source.URL,
		Rules:        loadRules(*rulesPath, workdir).PostRules(cfg.Source.Preset),
		Max:          cfg.MaxPosts,
		RawPath:      cfg.File(cfg.Files.RawBatch),
		DryRun:       cfg.DryRun,
		CursorHeader: cfg.Source.CursorHeader,
		CursorParam:  cfg.Source.CursorParam,
		MaxPages:     cfg.Source.MaxPages,
	})
	if errors.Is(err, source.ErrNothingToDo) {
		logx.Warnf("没有查询，也没有可重放的原始批次：%s", cfg.File(cfg.Files.RawBatch))
		return exitNothingToDo
	}
	if err != nil {
		logx.Errorf("打开帖子来源失败：%v", err)
		return exitFailure
	}

	// 6) 台账：dry-run 写内存，否则追加写文件
	var (
		sink ledger.Sink
		buf  *pipeline.Buffer
	)
	if cfg.DryRun {
		buf = pipeline.NewBuffer()
		sink = buf
	} else {
		files, err := ledger.Open(ledger.Paths{
			Skipped:  cfg.File(cfg.Files.Skipped),
			Accepted: cfg.File(cfg.Files.Accepted),
			Failed:   cfg.File(cfg.Files.Failed),
		})
		if err != nil {
			logx.Errorf("打开台账失败：%v", err)
			return exitFailure
		}
		sink = files
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logx.Warnf("关闭台账失败：%v", err)
		}
	}()

	// 7) 运行
	m := metrics.New()
	runner := pipeline.New(
		checkpoint.New(cfg.File(cfg.Files.Checkpoint)),
		src,
		filter.New(handles, include, exclude),
		res,
		sink,
		m,
		pipeline.Options{RunID: runID, DryRun: cfg.DryRun, RequireKeywords: cfg.Resolver.RequireKeywords},
	)
	st, err := runner.Run(ctx)
	if cfg.MetricsFile != "" {
		if werr := m.WriteTextfile(cfg.File(cfg.MetricsFile)); werr != nil {
			logx.Warnf("写入指标失败：%v", werr)
		}
	}
	if err != nil {
		logx.Errorf("运行失败：%v", err)
		return exitFailure
	}
	logx.Infof("完成：帖子=%d 接受=%d 跳过=%d 链接接受=%d 排除=%d 失败=%d 检查点=%d",
		st.PostsTotal, st.PostsAccepted, st.PostsSkipped, st.URLsAccepted, st.URLsExcluded, st.URLsFailed, st.Checkpoint)

	// 8) dry-run 导出 JSON 报告
	if buf != nil && *exportPath != "" {
		if err := export.ToJSON(buf.Report(st), cfg.File(*exportPath)); err != nil {
			logx.Errorf("导出失败：%v", err)
			return exitFailure
		}
		logx.Infof("已导出 %s", cfg.File(*exportPath))
	}
	return exitOK
}

// loadRules 加载可选的 rules.yaml；缺失或出错时使用内置默认规则。
func loadRules(path, workdir string) *rules.Rules {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(workdir, defaultRulesFile)
	}
	rl, err := rules.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			logx.Warnf("加载规则失败，使用内置规则：%v", err)
		}
		return nil
	}
	return rl
}

// runVerify 重新校验接受台账。
func runVerify(ctx context.Context, cfg *config.Config, res *resolve.Resolver) int {
	if !res.VerifiesKeywords() {
		logx.Warnf("未配置 RESOLVER.keywords，所有结果都将标记为 KeywordMissing")
	}
	in, err := os.Open(cfg.File(cfg.Verify.Input))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logx.Warnf("接受台账不存在：%s", cfg.File(cfg.Verify.Input))
			return exitNothingToDo
		}
		logx.Errorf("打开接受台账失败：%v", err)
		return exitFailure
	}
	defer in.Close()
	out, err := os.Create(cfg.File(cfg.Verify.Output))
	if err != nil {
		logx.Errorf("创建校验输出失败：%v", err)
		return exitFailure
	}
	defer out.Close()
	errOut, err := os.Create(cfg.File(cfg.Verify.Errors))
	if err != nil {
		logx.Errorf("创建错误输出失败：%v", err)
		return exitFailure
	}
	defer errOut.Close()

	logx.Infof("校验输出：%s", out.Name())
	sum, err := verify.Run(ctx, res, in, out, errOut, verify.Options{Limit: cfg.Verify.Limit, PostURL: cfg.Verify.PostURL})
	if err != nil {
		logx.Errorf("校验失败：%v", err)
		return exitFailure
	}
	logx.Infof("校验完成：行=%d 命中=%d 未命中=%d 错误=%d", sum.Lines, sum.Matched, sum.Missing, sum.Errors)
	return exitOK
}
