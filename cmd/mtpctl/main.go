// Copyright 2012 Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mtpctl opens an MTP device, optionally runs the MTPZ trusted-app
// handshake, loads its artist/album library and prints how many storages it
// found, then logs device events until interrupted. It does no mounting; use
// it to exercise the protocol stack from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gomtp/mtpcore/mtp"
	"github.com/gomtp/mtpcore/mtp/library"
	"github.com/gomtp/mtpcore/mtp/mtpz"
	"github.com/gomtp/mtpcore/mtp/transport"
	"github.com/gomtp/mtpcore/mtp/usbms"
	"github.com/gomtp/mtpcore/mtplog"
)

func main() {
	mtpDebug := flag.Bool("mtp-debug", false, "log every command/response container")
	device := flag.String("device", "", "vendor:product of the device to open, e.g. 045e:0724. Default: first MTP-shaped device found.")
	mtpzKeys := flag.String("mtpz-keyfile", "", "path to a .mtpz-data key file; when set, runs the MTPZ handshake after opening the session")
	timeout := flag.Duration("timeout", 30*time.Second, "per-operation timeout")
	flag.Parse()

	children := mtplog.PrepareChildren(mtplog.Root, *mtpDebug, *mtpDebug, *mtpDebug, *mtpDebug)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	usbDev, ep, err := usbms.Discover(ctx, *device)
	if err != nil {
		fatalf("discover: %v", err)
	}
	defer usbDev.Close()

	t := transport.New(usbDev, ep, children.USB)
	session := mtp.NewSession(t, children.Session)

	if err := session.OpenSession(ctx); err != nil {
		fatalf("open session: %v", err)
	}
	defer session.CloseSession(ctx)

	info, err := session.GetDeviceInfo(ctx)
	if err != nil {
		fatalf("get device info: %v", err)
	}
	fmt.Printf("%s %s (%s)\n", info.Manufacturer, info.Model, info.DeviceVersion)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		for {
			ev, ok, err := session.PollEvent(groupCtx)
			if err != nil {
				return err
			}
			if ok && *mtpDebug {
				fmt.Printf("event %#04x params=%v\n", ev.Code, ev.Param)
			}
			if groupCtx.Err() != nil {
				return nil
			}
		}
	})

	if *mtpzKeys != "" {
		app, err := mtpz.New(session, *mtpzKeys)
		if err != nil {
			fatalf("mtpz: %v", err)
		}
		if err := app.Authenticate(ctx); err != nil {
			fatalf("mtpz authenticate: %v", err)
		}
		fmt.Println("MTPZ handshake confirmed")
	}

	lib, err := library.New(ctx, session, library.Options{}, func(phase library.Phase, done, total int) {
		if *mtpDebug {
			fmt.Printf("library: %s %d/%d\n", phase, done, total)
		}
	})
	if err != nil {
		fatalf("library: %v", err)
	}

	fmt.Printf("loaded library with %d known storages\n", len(mustStorages(ctx, session)))
	_ = lib

	cancel()
	if err := group.Wait(); err != nil && groupCtx.Err() == nil {
		fmt.Fprintf(os.Stderr, "event loop: %v\n", err)
	}
}

func mustStorages(ctx context.Context, session *mtp.Session) []uint32 {
	ids, err := session.GetStorageIDs(ctx)
	if err != nil {
		return nil
	}
	return ids
}

func fatalf(format string, args ...interface{}) {
	log.Printf(format, args...)
	os.Exit(1)
}
