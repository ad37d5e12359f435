package main

import (
	"fmt"
	. "github.com/ZenLiuCN/dynlib"
	"github.com/ZenLiuCN/dynlib/pool"
	"github.com/ZenLiuCN/dynlib/vk"
	"github.com/ZenLiuCN/dynlib/wl"
	"github.com/urfave/cli/v2"
	"log"
	"log/slog"
	"os"
	"strings"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("failure %s", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "probe"
	app.Usage = "shared library probe"
	app.Description = "open shared libraries, resolve symbol manifests and check the vulkan and wayland loaders"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log loader activity to stderr"},
	}
	app.Before = func(ctx *cli.Context) error {
		if ctx.Bool("debug") {
			SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return nil
	}
	app.Commands = []*cli.Command{
		{
			Name:   "open",
			Action: open,
			Usage:  "open libraries and resolve symbols",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "required symbol, prefix with ? for optional"},
				&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "manifest file"},
			},
			Args: true,
		},
		{
			Name:   "symbols",
			Action: symbols,
			Usage:  "list dynamic exports of ELF files",
			Args:   true,
		},
		{
			Name:   "check",
			Action: check,
			Usage:  "report manifest symbols an ELF file does not export",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "manifest file", Required: true},
			},
			Args: true,
		},
		{
			Name:   "vulkan",
			Action: vulkan,
			Usage:  "load the vulkan loader and list instance extensions and layers",
		},
		{
			Name:   "wayland",
			Action: wayland,
			Usage:  "load libwayland-client and connect when WAYLAND_DISPLAY is set",
		},
	}
	return app
}

func manifestOf(ctx *cli.Context) (m Manifest, err error) {
	if f := ctx.String("manifest"); f != "" {
		if m, err = ReadManifest(f); err != nil {
			return
		}
	}
	if s := ctx.StringSlice("symbol"); len(s) > 0 {
		var x Manifest
		if x, err = ParseManifest(strings.NewReader(strings.Join(s, "\n"))); err != nil {
			return
		}
		m = m.With(x)
	}
	return
}

func open(ctx *cli.Context) (err error) {
	o := ctx.Args().Slice()
	if len(o) == 0 {
		return fmt.Errorf("missing library list")
	}
	var m Manifest
	if m, err = manifestOf(ctx); err != nil {
		return
	}
	for _, name := range o {
		if err = pool.Register(name, Config{Names: []string{name}, Mode: BindNow | ScopeLocal}, m); err != nil {
			return
		}
		var md *Module
		if md, err = pool.Acquire(name); err != nil {
			_ = pool.Unregister(name)
			return
		}
		fmt.Printf("%s\n", md.Library.Name())
		for _, s := range md.Table.Symbols() {
			fmt.Printf("\t%s\t%#x\n", s, uintptr(md.Table.MustFetch(s)))
		}
		for _, s := range md.Table.Absent() {
			fmt.Printf("\t%s\tabsent\n", s)
		}
		pool.Release(name)
		if err = pool.Unregister(name); err != nil {
			return
		}
	}
	return
}

func symbols(ctx *cli.Context) (err error) {
	for _, f := range ctx.Args().Slice() {
		var v []string
		if v, err = Inspect(f); err != nil {
			return
		}
		fmt.Printf("%s: %d symbols\n", f, len(v))
		for _, s := range v {
			fmt.Printf("\t%s\n", s)
		}
	}
	return
}

func check(ctx *cli.Context) (err error) {
	var m Manifest
	if m, err = ReadManifest(ctx.String("manifest")); err != nil {
		return
	}
	failed := 0
	for _, f := range ctx.Args().Slice() {
		var r, o []string
		if r, o, err = Missing(f, m); err != nil {
			return
		}
		if len(r) == 0 && len(o) == 0 {
			fmt.Printf("%s: ok\n", f)
			continue
		}
		for _, s := range r {
			fmt.Printf("%s: missing required %s\n", f, s)
		}
		for _, s := range o {
			fmt.Printf("%s: missing optional %s\n", f, s)
		}
		if len(r) > 0 {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d files miss required symbols", failed)
	}
	return
}

func vulkan(ctx *cli.Context) (err error) {
	if err = vk.Init(); err != nil {
		return
	}
	defer vk.Fini()
	var v uint32
	if v, err = vk.InstanceVersion(); err != nil {
		return
	}
	_, major, minor, patch := vk.APIVersion(v)
	fmt.Printf("%s: instance version %d.%d.%d\n", vk.Current().Path(), major, minor, patch)
	var names []string
	if names, err = vk.InstanceExtensions(); err != nil {
		return
	}
	for _, s := range names {
		fmt.Printf("\textension\t%s\n", s)
	}
	if names, err = vk.InstanceLayers(); err != nil {
		return
	}
	for _, s := range names {
		fmt.Printf("\tlayer\t%s\n", s)
	}
	return
}

func wayland(ctx *cli.Context) (err error) {
	if err = wl.Init(); err != nil {
		return
	}
	defer wl.Fini()
	fmt.Printf("%s\n", wl.Current().Path())
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		Logger().Debug("wayland: WAYLAND_DISPLAY not set, skip connect")
		return
	}
	d := wl.Connect("")
	if d == 0 {
		return fmt.Errorf("connect to %s failed", os.Getenv("WAYLAND_DISPLAY"))
	}
	defer wl.Disconnect(d)
	reg := wl.GetRegistry(d)
	if reg == 0 {
		return fmt.Errorf("get registry failed: %d", wl.GetError(d))
	}
	defer wl.ProxyDestroy(reg)
	if n := wl.Roundtrip(d); n < 0 {
		return fmt.Errorf("roundtrip failed: %d", wl.GetError(d))
	}
	fmt.Printf("\tfd\t%d\n\tregistry\t%d\n", wl.GetFD(d), wl.ProxyGetID(reg))
	return
}
