package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"groovy/internal/audio"
	"groovy/internal/config"
	"groovy/internal/metadata"
	"groovy/internal/player"
	"groovy/internal/session"
	"groovy/internal/store"
	"groovy/pkg/models"
)

func main() {
	// .env may override where the config lives; missing file is fine.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}
	configPath := os.Getenv("GROOVY_CONFIG")
	if configPath == "" {
		configPath = "./config.toml"
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	configureLogger(logger, cfg.Logging)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error opening snapshot store")
	}

	probe := metadata.NewProbe(logger)
	playback := audio.NewBeepPlayer(logger)

	svc := player.NewService(st, playback, probe, player.Options{
		HistoryCapacity:  cfg.Player.HistoryCapacity,
		PollInterval:     time.Duration(cfg.Player.PollIntervalMillis) * time.Millisecond,
		AdvanceThreshold: cfg.Player.AdvanceThreshold,
	}, logger)
	defer svc.Close()

	// Library loads before the playlist so playlist ids resolve.
	svc.LoadFromStore()

	if cfg.Storage.Backend == "json" && cfg.Storage.WatchForChanges {
		watcher, err := store.NewWatcher(
			[]string{cfg.Storage.SongsPath, cfg.Storage.PlaylistPath},
			500*time.Millisecond,
			svc.Reload,
			logger,
		)
		if err != nil {
			logger.WithError(err).Warn("Could not start snapshot watcher")
		} else {
			defer watcher.Close()
		}
	}

	sessions := session.NewManager()
	sessions.OnEnd(svc.Logout)
	sessions.Begin("guest")

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Received shutdown signal")
		sessions.End()
		svc.Close()
		os.Exit(0)
	}()

	runPrompt(svc, sessions)
	sessions.End()
}

// configureLogger applies level, format and output file from config.
func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Could not open log file, using stderr")
		} else {
			logger.SetOutput(f)
		}
	}
}

// openStore selects the snapshot backend from config.
func openStore(cfg *config.Config, logger *logrus.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	default:
		return store.NewJSONStore(cfg.Storage.SongsPath, cfg.Storage.PlaylistPath, logger), nil
	}
}

// runPrompt is the thin presentation shell: a line-oriented prompt that
// forwards commands to the service. The real product UI lives elsewhere.
func runPrompt(svc *player.Service, sessions *session.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("groovy - type 'help' for commands")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "quit", "exit":
			return
		case "list":
			printSongs(svc.Library())
		case "playlist":
			printSongs(svc.Playlist())
		case "history":
			printSongs(svc.History())
		case "favorites":
			printSongs(svc.Favorites())
		case "queue":
			printSongs(svc.QueueSongs())
		case "search":
			printSongs(svc.Search(strings.Join(args, " ")))
		case "play":
			withID(args, func(id int) {
				cur := svc.Cursor()
				if err := svc.PlayByID(id, cur.Mode); err != nil {
					fmt.Println("error:", err)
				}
			})
		case "pause":
			report(svc.Pause())
		case "resume":
			report(svc.Resume())
		case "stop":
			svc.Stop()
		case "next":
			if song, err := svc.Next(); err != nil {
				fmt.Println("error:", err)
			} else if song == nil {
				fmt.Println("no next song")
			}
		case "prev":
			if song, err := svc.Prev(); err != nil {
				fmt.Println("error:", err)
			} else if song == nil {
				fmt.Println("no previous song")
			}
		case "add":
			parts := strings.Split(strings.Join(args, " "), "|")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			if len(parts) < 3 {
				fmt.Println("usage: add <title>|<artist>|<genre>[|album|year|duration]")
				continue
			}
			input := player.AddSongInput{Title: parts[0], Artist: parts[1], Genre: parts[2]}
			if len(parts) > 3 {
				input.Album = parts[3]
			}
			if len(parts) > 4 {
				input.Year = parts[4]
			}
			if len(parts) > 5 {
				input.Duration = parts[5]
			}
			if song, err := svc.AddSong(input); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("added", song)
			}
		case "addfile":
			if len(args) != 1 {
				fmt.Println("usage: addfile <path>")
				continue
			}
			if song, err := svc.AddSongFromFile(args[0]); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("added", song)
			}
		case "del":
			withID(args, func(id int) {
				if !svc.DeleteSong(id) {
					fmt.Println("song not found")
				}
			})
		case "pladd":
			withID(args, func(id int) { report(svc.AddToPlaylist(id)) })
		case "plrm":
			withID(args, func(id int) {
				if !svc.RemoveFromPlaylist(id) {
					fmt.Println("not in playlist")
				}
			})
		case "fav":
			withID(args, func(id int) {
				if svc.ToggleFavorite(id) {
					fmt.Println("added to favorites")
				} else {
					fmt.Println("removed from favorites")
				}
			})
		case "enq":
			withID(args, func(id int) { report(svc.Enqueue(id)) })
		case "deq":
			if song, err := svc.PlayNextQueued(); err != nil {
				fmt.Println("error:", err)
			} else if song == nil {
				fmt.Println("queue is empty")
			}
		case "view":
			if len(args) != 2 {
				fmt.Println("usage: view <library|playlist> <asc|desc>")
				continue
			}
			svc.SetView(player.Mode(args[0]), player.SortOrder(args[1]))
		case "status":
			printStatus(svc.Cursor())
		case "login":
			name := "guest"
			if len(args) > 0 {
				name = args[0]
			}
			sessions.Begin(name)
			fmt.Println("session started for", name)
		case "logout":
			sessions.End()
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  list | playlist | history | favorites | queue
  search <keyword>
  play <id> | pause | resume | stop | next | prev
  add <title>|<artist>|<genre>[|album|year|duration]
  addfile <path> | del <id>
  pladd <id> | plrm <id> | fav <id>
  enq <id> | deq
  view <library|playlist> <asc|desc>
  status | login [name] | logout | quit`)
}

func printSongs(songs []models.Song) {
	if len(songs) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, s := range songs {
		fmt.Println(" ", s)
	}
}

func printStatus(cur player.Cursor) {
	if cur.Song == nil {
		fmt.Println("no song playing")
		return
	}
	state := "paused"
	if cur.IsPlaying {
		state = "playing"
	}
	fmt.Printf("%s [%s] %s/%s (mode=%s order=%s)\n",
		cur.Song, state,
		models.FormatSeconds(cur.Elapsed), models.FormatSeconds(cur.Total),
		cur.Mode, cur.Order)
}

func withID(args []string, fn func(int)) {
	if len(args) != 1 {
		fmt.Println("expected a song id")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("invalid song id:", args[0])
		return
	}
	fn(id)
}

func report(err error) {
	if err != nil {
		fmt.Println("error:", err)
	}
}
