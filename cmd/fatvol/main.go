// Command fatvol inspects and wipes FAT12/16/32 disk images.
//
//	fatvol [flags] info <image>
//	fatvol [flags] free <image>
//	fatvol [flags] chain <image> <cluster>
//	fatvol [flags] wipe --yes <image>
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	fat "github.com/soypat/fatvol"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	err := run(afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, "fatvol:", err)
		os.Exit(1)
	}
}

type config struct {
	partition int
	trackFree bool
	verbose   bool
	yes       bool
}

func run(fsys afero.Fs, args []string, stdout, stderr io.Writer) error {
	var cfg config
	fs := pflag.NewFlagSet("fatvol", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVarP(&cfg.partition, "partition", "p", 0, "MBR partition number 1..4, 0 for an unpartitioned image")
	fs.BoolVar(&cfg.trackFree, "track-free", false, "keep the free cluster count up to date while allocating")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log volume operations to stderr")
	fs.BoolVar(&cfg.yes, "yes", false, "confirm destructive operations")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fatvol [flags] info|free|wipe <image>")
		fmt.Fprintln(stderr, "       fatvol [flags] chain <image> <cluster>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("missing command or image")
	}
	cmd, image := fs.Arg(0), fs.Arg(1)

	flag := os.O_RDONLY
	if cmd == "wipe" {
		if !cfg.yes {
			return errors.New("wipe destroys all data on the volume, pass --yes to confirm")
		}
		flag = os.O_RDWR
	}
	dev, err := fat.OpenFileBlocks(fsys, image, flag)
	if err != nil {
		return err
	}
	defer dev.Close()

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	mcfg := fat.MountConfig{
		Partition:         cfg.partition,
		TrackFreeClusters: cfg.trackFree,
		Logger:            slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}
	var v fat.Volume
	if err := v.Mount(dev, mcfg); err != nil {
		return fmt.Errorf("mounting %s: %w", image, err)
	}

	switch cmd {
	case "info":
		return info(stdout, &v)
	case "free":
		free, err := v.FreeClusterCount()
		if err != nil {
			return err
		}
		g := v.Geometry()
		fmt.Fprintf(stdout, "%d of %d clusters free\n", free, g.LastCluster-1)
		return nil
	case "chain":
		if fs.NArg() < 3 {
			return errors.New("chain needs a starting cluster")
		}
		start, err := strconv.ParseUint(fs.Arg(2), 0, 32)
		if err != nil {
			return fmt.Errorf("bad cluster: %w", err)
		}
		return chain(stdout, &v, uint32(start))
	case "wipe":
		return wipe(stdout, &v, dev, mcfg)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func info(w io.Writer, v *fat.Volume) error {
	oem, label, err := v.Labels()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "OEM:%s\nLabel:%s\n", oem, label)
	_, err = w.Write(v.Geometry().Appendf(nil, '\n'))
	return err
}

func chain(w io.Writer, v *fat.Volume, cluster uint32) error {
	// A chain cannot be longer than the number of clusters unless it loops.
	maxLen := v.Geometry().LastCluster - 1
	var n uint32
	for {
		if n >= maxLen {
			return fmt.Errorf("chain longer than %d clusters, FAT has a cycle", maxLen)
		}
		block, err := v.ClusterStartBlock(cluster)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t(block %d)\n", cluster, block)
		n++
		next, eoc, err := v.Next(cluster)
		if err != nil {
			return fmt.Errorf("after %d clusters: %w", n, err)
		} else if eoc {
			break
		}
		cluster = next
	}
	fmt.Fprintf(w, "%d clusters\n", n)
	return nil
}

func wipe(w io.Writer, v *fat.Volume, dev *fat.FileBlocks, cfg fat.MountConfig) error {
	err := v.Wipe(func(done, total uint32) {
		fmt.Fprintf(w, "\rzeroing FATs %d/%d", done, total)
	})
	fmt.Fprintln(w)
	if err != nil {
		return err
	}
	if err := dev.Sync(); err != nil {
		return err
	}
	// Check the result by mounting again.
	if err := v.Mount(dev, cfg); err != nil {
		return err
	}
	free, err := v.FreeClusterCount()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "wiped %s volume, %d clusters free\n", v.Format(), free)
	return nil
}
