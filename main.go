package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rvs/config"
	"rvs/cryptography"
	"rvs/history"
	"rvs/pipeline"
	"rvs/platform"
	"rvs/util"
)

const (
	AppFolder      = ".rvs"
	ConfigFilename = "config.yaml"
	SaltFilename   = "salt.bin"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		help()
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fatal("Failed to get home directory:", err)
	}
	appFolder := filepath.Join(home, AppFolder)
	if _, err := os.Stat(appFolder); err != nil {
		if err := os.MkdirAll(appFolder, 0760); err != nil {
			fatal("Failed to create application directory:", err)
		}
	}

	switch os.Args[1] {
	case "encode":
		runEncode(appFolder, os.Args[2:])
	case "decode":
		runDecode(appFolder, os.Args[2:])
	case "upload":
		runUpload(appFolder, os.Args[2:])
	case "download":
		runDownload(appFolder, os.Args[2:])
	case "history":
		runHistory(appFolder, os.Args[2:])
	default:
		help()
	}
}

func runEncode(appFolder string, args []string) {
	if len(args) < 1 {
		fatal("Usage: rvs encode <input file> [output video]")
	}
	inputPath := args[0]
	outputPath := ""
	if len(args) >= 2 {
		outputPath = args[1]
	} else {
		// no output path given: suggest one alongside the input file.
		outputPath = filepath.Join(filepath.Dir(inputPath), util.GenFilename("rvs-", "mkv"))
	}

	conf := loadOrCreateConfig(appFolder)
	logger := newLogger(appFolder, conf)
	password := askPasswordOrNil()

	start := time.Now()
	err := pipeline.Encode(inputPath, outputPath, password, conf.Pipeline)
	recordHistory(appFolder, conf, history.KindEncode, inputPath, outputPath, err)
	if err != nil {
		logger.LogError(err)
		fatal("Failed to encode:", err)
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	logger.LogInfo(fmt.Sprintf("encoded %s -> %s in %s", inputPath, outputPath, elapsed))
	fmt.Printf("Encoded %s -> %s in %s\n", inputPath, outputPath, elapsed)
}

func runDecode(appFolder string, args []string) {
	if len(args) < 2 {
		fatal("Usage: rvs decode <input video> <output file>")
	}
	inputPath, outputPath := args[0], args[1]

	conf := loadOrCreateConfig(appFolder)
	logger := newLogger(appFolder, conf)
	password := askPasswordOrNil()

	err := pipeline.Decode(inputPath, outputPath, password)
	recordHistory(appFolder, conf, history.KindDecode, inputPath, outputPath, err)
	if err != nil {
		logger.LogError(err)
		fatal("Failed to decode:", err)
	}
	logger.LogInfo(fmt.Sprintf("decoded %s -> %s", inputPath, outputPath))
	fmt.Printf("Decoded %s -> %s\n", inputPath, outputPath)
}

func runUpload(appFolder string, args []string) {
	if len(args) < 2 {
		fatal("Usage: rvs upload <vk|rutube> <video file>")
	}
	backend, path := args[0], args[1]

	conf := loadOrCreateConfig(appFolder)
	logger := newLogger(appFolder, conf)
	uploader, err := resolveUploader(conf, backend)
	if err != nil {
		fatal("Failed to configure uploader:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	remoteID, err := uploader.Upload(ctx, path)
	if err != nil {
		logger.LogError(err)
		fatal("Failed to upload:", err)
	}
	logger.LogInfo(fmt.Sprintf("uploaded %s to %s as %s", path, backend, remoteID))
	fmt.Printf("Uploaded as %s\n", remoteID)
}

func runDownload(appFolder string, args []string) {
	if len(args) < 3 {
		fatal("Usage: rvs download <vk|rutube> <remote id> <output file>")
	}
	backend, remoteID, outputPath := args[0], args[1], args[2]

	conf := loadOrCreateConfig(appFolder)
	logger := newLogger(appFolder, conf)
	downloader, err := resolveDownloader(conf, backend)
	if err != nil {
		fatal("Failed to configure downloader:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	if err := downloader.Download(ctx, remoteID, outputPath); err != nil {
		logger.LogError(err)
		fatal("Failed to download:", err)
	}
	logger.LogInfo(fmt.Sprintf("downloaded %s from %s to %s", remoteID, backend, outputPath))
	fmt.Printf("Downloaded %s -> %s\n", remoteID, outputPath)
}

// newLogger builds the colored append-logger described by conf.Logger,
// resolving a relative filename against appFolder the same way the
// history database's file is resolved.
func newLogger(appFolder string, conf *config.FullConfig) *util.Logger {
	li := conf.Logger
	if !filepath.IsAbs(li.Filename) {
		li.Filename = filepath.Join(appFolder, li.Filename)
	}
	return util.NewLogger(&li)
}

func runHistory(appFolder string, args []string) {
	conf := loadOrCreateConfig(appFolder)
	db, err := openHistory(appFolder, conf)
	if err != nil {
		fatal("Failed to open history database:", err)
	}
	defer db.Close()

	records, err := db.Recent(20)
	if err != nil {
		fatal("Failed to read history:", err)
	}
	for _, r := range records {
		status := "ok"
		if r.ErrorKind != "" {
			status = r.ErrorKind
		}
		if r.Tampered {
			status += " [checksum mismatch]"
		}
		fmt.Printf("%s\t%s\t%s -> %s\t%s\n", r.ID, r.Kind, r.InputPath, r.OutputPath, status)
	}
}

func resolveUploader(conf *config.FullConfig, backend string) (platform.Uploader, error) {
	p, ok := conf.Platform(backend)
	if !ok {
		return nil, fmt.Errorf("no configured platform named %q", backend)
	}
	switch backend {
	case "vk":
		return platform.VK{AccessToken: p.AccessToken, GroupID: p.GroupID}, nil
	case "rutube":
		return platform.RuTube{AccessToken: p.AccessToken}, nil
	default:
		return nil, fmt.Errorf("unknown platform %q", backend)
	}
}

func resolveDownloader(conf *config.FullConfig, backend string) (platform.Downloader, error) {
	u, err := resolveUploader(conf, backend)
	if err != nil {
		return nil, err
	}
	d, ok := u.(platform.Downloader)
	if !ok {
		return nil, fmt.Errorf("platform %q does not support download", backend)
	}
	return d, nil
}

func recordHistory(appFolder string, conf *config.FullConfig, kind history.Kind, inputPath, outputPath string, runErr error) {
	db, err := openHistory(appFolder, conf)
	if err != nil {
		return
	}
	defer db.Close()

	r := history.Record{
		Kind:       kind,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Timestamp:  time.Now().Unix(),
	}
	if runErr != nil {
		r.ErrorKind = runErr.Error()
	}
	db.Append(r)
}

func openHistory(appFolder string, conf *config.FullConfig) (*history.DB, error) {
	dbFile := conf.History.File
	if !filepath.IsAbs(dbFile) {
		dbFile = filepath.Join(appFolder, dbFile)
	}
	password := conf.History.Password
	if password == "" {
		password = "unset"
	}
	return history.Open(dbFile, password, conf.History.RowsLimit)
}

func loadOrCreateConfig(appFolder string) *config.FullConfig {
	configFile := filepath.Join(appFolder, ConfigFilename)
	key := configKey(appFolder)

	if _, err := os.Stat(configFile); err != nil {
		conf := config.DefaultConfig()
		conf.History.File = "history.db"
		conf.History.Password = util.GenID()
		if err := config.SaveConfig(configFile, key, &conf); err != nil {
			fatal("Failed to save default configuration:", err)
		}
		return &conf
	}

	conf, err := config.LoadConfig(configFile, key)
	if err != nil {
		fatal("Failed to load configuration:", err)
	}
	return conf
}

func configKey(appFolder string) []byte {
	salt, err := getSalt(appFolder)
	if err != nil {
		fatal("Failed to get salt bytes:", err)
	}
	return cryptography.DeriveKey([]byte("rvs-config"), salt)
}

func getSalt(appFolder string) ([]byte, error) {
	saltFile := filepath.Join(appFolder, SaltFilename)
	salt, err := os.ReadFile(saltFile)
	if err == nil {
		return salt, nil
	}
	salt, err = cryptography.GenRandom(16)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(saltFile, salt, 0660); err != nil {
		return nil, err
	}
	return salt, nil
}

func askPasswordOrNil() []byte {
	password, err := util.GetPasswd("Encryption password (leave empty for none): ")
	if err != nil {
		fatal("Failed to read password from stdin:", err)
	}
	if len(password) == 0 {
		return nil
	}
	return password
}

func fatal(args ...any) {
	fmt.Println(args...)
	os.Exit(1)
}

func help() {
	line := `Usage: rvs <command> [arguments]

The following commands are supported:
	encode <input> [output.mkv]            encode a file into a video (output name is suggested if omitted)
	decode <input.mkv> <output>             decode a video back into a file
	upload <vk|rutube> <video file>         upload a video to a hosting backend
	download <vk|rutube> <id> <output>      download a video from a hosting backend
	history                                 show recent encode/decode runs
`
	fmt.Printf("%s", line)
}
