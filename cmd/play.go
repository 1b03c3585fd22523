package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/event"
	"github.com/tubelink/tubelink/icon"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/metrics"
	"github.com/tubelink/tubelink/player"
	"github.com/tubelink/tubelink/provider"
	"github.com/tubelink/tubelink/session"
	"github.com/tubelink/tubelink/style"
	"github.com/tubelink/tubelink/util"
)

func init() {
	rootCmd.AddCommand(playCmd)
	addSourceFlags(playCmd)

	playCmd.Flags().Bool("loop", false, "Restart the video when it reaches the end")
	lo.Must0(viper.BindPFlag(key.PlayerLooping, playCmd.Flags().Lookup("loop")))

	playCmd.Flags().String("metrics", "", "Expose Prometheus metrics on this address while playing (e.g. :9090)")
	lo.Must0(viper.BindPFlag(key.MetricsListen, playCmd.Flags().Lookup("metrics")))

	playCmd.Flags().Float64("volume", 1, "Initial volume, from 0 to 1")
	playCmd.Flags().Duration("start", 0, "Seek to this position once the video is ready")
	playCmd.Flags().BoolP("json", "j", false, "Print events as JSON lines")

	playCmd.SetOut(os.Stdout)
}

// playCmd resolves a source, plays it in the configured engine and prints its events until it completes.
var playCmd = &cobra.Command{
	Use:     "play <id|url|asset>",
	Short:   "Play a video with quality fallback",
	Example: "  tubelink play dQw4w9WgXcQ -q 720p\n  tubelink play jfKfPfyJRdk --live --metrics :9090\n  tubelink play --asset intro.mp4 --loop",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		d := descriptorFromArgs(cmd, args)
		engines, err := player.FactoryFromConfig()
		handleErr(err)

		controller := session.NewController(session.Options{
			Resolver:   session.NewResolver(provider.Default(), viper.GetString(key.PlayerAssetRoot)),
			Engines:    engines,
			Looping:    viper.GetBool(key.PlayerLooping),
			OnResolved: recordHistory,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if addr := viper.GetString(key.MetricsListen); addr != "" {
			go func() {
				if err := metrics.Serve(ctx, addr); err != nil {
					log.Warnf("metrics: %v", err)
				}
			}()
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Progress), args[0]))
		pending := controller.Create(d)
		result := pending.Await(ctx)
		erase()

		if ctx.Err() != nil {
			pending.Cancel()
			return
		}

		id, err := result.Get()
		handleErr(err)
		defer func() {
			handleErr(controller.Dispose(id))
		}()

		var (
			asJson   = lo.Must(cmd.Flags().GetBool("json"))
			start    = lo.Must(cmd.Flags().GetDuration("start"))
			finished = make(chan struct{})
			once     sync.Once
		)

		handleErr(controller.Attach(id, event.DelegateFunc(func(e event.Event) {
			printEvent(cmd, e, asJson)

			switch e.(type) {
			case event.Initialized:
				if start > 0 {
					if err := controller.SeekTo(id, start.Milliseconds()); err != nil {
						log.Warnf("seek: %v", err)
					}
				}
			case event.Completed:
				once.Do(func() { close(finished) })
			}
		})))

		handleErr(controller.SetVolume(id, lo.Must(cmd.Flags().GetFloat64("volume"))))
		handleErr(controller.Play(id))

		select {
		case <-ctx.Done():
		case <-finished:
		}
	},
}

func printEvent(cmd *cobra.Command, e event.Event, asJson bool) {
	if asJson {
		data, err := json.Marshal(e)
		if err != nil {
			log.Warnf("marshal %s: %v", e.Name(), err)
			return
		}
		cmd.Println(string(data))
		return
	}

	switch e := e.(type) {
	case event.Initialized:
		cmd.Printf("%s %s %s %s\n",
			icon.Get(icon.Video),
			style.Bold("ready"),
			(time.Duration(e.Duration) * time.Millisecond).String(),
			style.Faint(fmt.Sprintf("%dx%d", e.Width, e.Height)),
		)
	case event.BufferingUpdate:
		cmd.Printf("%s %s %d%%\n", icon.Get(icon.Event), style.Faint("buffering"), e.Percent)
	case event.Completed:
		cmd.Printf("%s %s\n", icon.Get(icon.Success), style.Bold("completed"))
	case event.Error:
		cmd.Printf("%s %s %s\n", icon.Get(icon.Fail), style.ErrorTag(e.Kind), e.Message)
	}
}
