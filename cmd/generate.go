package cmd

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	"chaingen/config"
	"chaingen/core"
	"chaingen/database"
	"chaingen/interfaces"
	"chaingen/logger"
	"chaingen/metrics"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a deterministic synthetic chain",
	Long: `Generate a deterministic synthetic chain and stream each block as one
RLP payload per line. Optionally fork the chain partway and attach a fixed
bloom or a batch of signed dummy transactions to every block.`,
	RunE: runGenerate,
}

func init() {
	// Flag spesifik untuk generate. Viper menangani prioritas flag/env/file.
	generateCmd.Flags().Uint64("count", config.DefaultConfig.Count, "Number of canonical blocks to generate")
	generateCmd.Flags().Uint64("startnumber", config.DefaultConfig.StartNumber, "Block number of the first generated block")
	generateCmd.Flags().Uint64("difficulty", config.DefaultConfig.Difficulty, "Difficulty assigned to every canonical block")
	generateCmd.Flags().Uint64("forkat", config.DefaultConfig.ForkAt, "Canonical height at which the fork branch splits off")
	generateCmd.Flags().Uint64("forkblocks", config.DefaultConfig.ForkBlocks, "Number of fork blocks to generate (0 disables the fork)")
	generateCmd.Flags().Uint64("forknumber", config.DefaultConfig.ForkNumber, "Difficulty reduction applied to every fork block")
	generateCmd.Flags().String("bloom", config.DefaultConfig.Bloom, "Hex-encoded logs bloom stamped on every block (max 256 bytes)")
	generateCmd.Flags().Int("txperblock", config.DefaultConfig.TxPerBlock, "Number of signed dummy transactions attached to every block")
	generateCmd.Flags().Int("txaccounts", config.DefaultConfig.TxAccounts, "Number of sender accounts derived from the seed")
	generateCmd.Flags().String("txseed", config.DefaultConfig.TxSeed, "Seed string for deterministic account derivation")
	generateCmd.Flags().String("format", config.DefaultConfig.Format, "Output line format: hex or json")
	generateCmd.Flags().StringP("output", "o", config.DefaultConfig.Output, "Output file path, '-' for stdout")
	generateCmd.Flags().Bool("store", config.DefaultConfig.Store, "Also persist generated blocks into the LevelDB chain store")

	viper.BindPFlag("count", generateCmd.Flags().Lookup("count"))
	viper.BindPFlag("startnumber", generateCmd.Flags().Lookup("startnumber"))
	viper.BindPFlag("difficulty", generateCmd.Flags().Lookup("difficulty"))
	viper.BindPFlag("forkat", generateCmd.Flags().Lookup("forkat"))
	viper.BindPFlag("forkblocks", generateCmd.Flags().Lookup("forkblocks"))
	viper.BindPFlag("forknumber", generateCmd.Flags().Lookup("forknumber"))
	viper.BindPFlag("bloom", generateCmd.Flags().Lookup("bloom"))
	viper.BindPFlag("txperblock", generateCmd.Flags().Lookup("txperblock"))
	viper.BindPFlag("txaccounts", generateCmd.Flags().Lookup("txaccounts"))
	viper.BindPFlag("txseed", generateCmd.Flags().Lookup("txseed"))
	viper.BindPFlag("format", generateCmd.Flags().Lookup("format"))
	viper.BindPFlag("output", generateCmd.Flags().Lookup("output"))
	viper.BindPFlag("store", generateCmd.Flags().Lookup("store"))
}

// blockLine adalah bentuk satu baris output pada format json.
type blockLine struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
	RLP    string `json:"rlp"`
}

// streamSink menulis setiap blok sebagai satu baris teks ke writer tujuan.
type streamSink struct {
	w      *bufio.Writer
	closer io.Closer // nil saat menulis ke stdout
	format string
}

func newStreamSink(path, format string) (*streamSink, error) {
	if path == "" || path == "-" {
		return &streamSink{w: bufio.NewWriter(os.Stdout), format: format}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file '%s': %v", path, err)
	}
	return &streamSink{w: bufio.NewWriter(f), closer: f, format: format}, nil
}

func (s *streamSink) WriteBlock(number uint64, hash [32]byte, encoded []byte) error {
	var line []byte
	if s.format == "json" {
		payload, err := json.Marshal(blockLine{
			Number: number,
			Hash:   fmt.Sprintf("0x%x", hash),
			RLP:    fmt.Sprintf("0x%x", encoded),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal block %d: %v", number, err)
		}
		line = payload
	} else {
		line = []byte(hex.EncodeToString(encoded))
	}
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("failed to write block %d: %v", number, err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write block %d: %v", number, err)
	}
	return nil
}

func (s *streamSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %v", err)
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// multiSink meneruskan setiap blok ke beberapa sink sekaligus.
type multiSink struct {
	sinks []interfaces.BlockSinkItf
}

func (m *multiSink) WriteBlock(number uint64, hash [32]byte, encoded []byte) error {
	for _, s := range m.sinks {
		if err := s.WriteBlock(number, hash, encoded); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// buildPlan menerjemahkan config menjadi Plan yang siap dijalankan.
// Transaksi dummy ditandatangani sekali di sini, bukan per blok, supaya
// semua blok membawa batch transaksi yang identik dan deterministik.
func buildPlan(cfg *config.Config) (*core.Plan, error) {
	plan := &core.Plan{
		StartNumber: cfg.StartNumber,
		Count:       cfg.Count,
		Difficulty:  new(big.Int).SetUint64(cfg.Difficulty),
		ForkAt:      cfg.ForkAt,
		ForkBlocks:  cfg.ForkBlocks,
		ForkNumber:  cfg.ForkNumber,
	}

	if raw := cfg.BloomBytes(); raw != nil {
		bloom := types.BytesToBloom(raw)
		plan.Bloom = &bloom
	}

	if cfg.TxPerBlock > 0 {
		factory, err := core.NewTxFactory(cfg.TxSeed, cfg.TxAccounts)
		if err != nil {
			return nil, fmt.Errorf("failed to build transaction factory: %v", err)
		}
		for i := 0; i < cfg.TxPerBlock; i++ {
			tx, err := factory.NextTransaction()
			if err != nil {
				return nil, fmt.Errorf("failed to sign dummy transaction: %v", err)
			}
			plan.Transactions = append(plan.Transactions, tx)
		}
	}

	return plan, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger.SetLevel(cfg.GetLogLevel())
	logger.Info("Starting synthetic chain generation...")
	logger.Infof("Effective Configuration: Count=%d, StartNumber=%d, Difficulty=%d, ForkAt=%d, ForkBlocks=%d, ForkNumber=%d, TxPerBlock=%d, Format=%s, Output=%s, Store=%t",
		cfg.Count, cfg.StartNumber, cfg.Difficulty, cfg.ForkAt, cfg.ForkBlocks, cfg.ForkNumber,
		cfg.TxPerBlock, cfg.Format, cfg.Output, cfg.Store)

	plan, err := buildPlan(cfg)
	if err != nil {
		return err
	}

	stream, err := newStreamSink(cfg.Output, cfg.Format)
	if err != nil {
		return err
	}
	sinks := []interfaces.BlockSinkItf{stream}

	if cfg.Store {
		storePath := cfg.GetDataSubDir("chaindata")
		store, errStore := database.NewChainStore(storePath)
		if errStore != nil {
			stream.Close()
			return fmt.Errorf("failed to open chain store at '%s': %v", storePath, errStore)
		}
		logger.Infof("Persisting blocks into chain store at %s", storePath)
		sinks = append(sinks, store)
	}

	sink := sinks[0]
	if len(sinks) > 1 {
		sink = &multiSink{sinks: sinks}
	}

	stats, runErr := plan.Run(sink)
	closeErr := sink.Close()
	if runErr != nil {
		return fmt.Errorf("generation failed: %v", runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %v", closeErr)
	}

	logger.Infof("Generated %d canonical and %d fork blocks in %s",
		stats.CanonicalBlocks, stats.ForkBlocks, stats.Elapsed)
	logger.Infof("Head hash: 0x%x", stats.HeadHash)
	if stats.ForkBlocks > 0 {
		logger.Infof("Fork head hash: 0x%x", stats.ForkHeadHash)
	}

	if cfg.EnableMetrics {
		metricsData := metrics.GetMetrics().ToMap()
		payload, errJSON := json.MarshalIndent(metricsData, "", "  ")
		if errJSON != nil {
			logger.Warningf("Failed to render metrics: %v", errJSON)
		} else {
			// Metrics ke stderr supaya stream payload di stdout tetap bersih.
			fmt.Fprintln(os.Stderr, string(payload))
		}
	}

	return nil
}
