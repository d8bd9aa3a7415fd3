package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings" // Diperlukan untuk SetEnvKeyReplacer

	"chaingen/config" // Impor package config Anda

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd merepresentasikan perintah dasar ketika dipanggil tanpa sub-perintah
var rootCmd = &cobra.Command{
	Use:   "chaingen",
	Short: "Chaingen Synthetic Chain Generator",
	Long: `Chaingen adalah generator rantai blok sintetis yang deterministik
untuk pengujian: rantai kanonik, cabang fork, bloom, dan transaksi dummy.`,
}

// Execute menambahkan semua perintah anak ke perintah root dan mengatur flag dengan sesuai.
// Ini dipanggil oleh main.main(). Ini hanya perlu terjadi sekali pada rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Fungsi initConfig akan dipanggil ketika Cobra menginisialisasi.
	cobra.OnInitialize(initConfig)

	// Menambahkan sub-perintah ke perintah root.
	rootCmd.AddCommand(generateCmd) // Dari cmd/generate.go
	rootCmd.AddCommand(inspectCmd)  // Dari cmd/inspect.go

	// Mendefinisikan flag persisten yang berlaku untuk perintah ini dan semua sub-perintahnya.
	// Nilai default di sini akan digunakan jika tidak ada nilai dari file config atau ENV.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chaingen/config.yaml or ./config.yaml)")

	// Flag-flag ini juga didefinisikan di config.defaultConfig. Viper akan menangani prioritas.
	// Default yang diberikan di sini lebih sebagai placeholder untuk help text.
	rootCmd.PersistentFlags().String("datadir", config.DefaultConfig.DataDir, "Data directory for the optional chain store")
	rootCmd.PersistentFlags().String("log_level", config.DefaultConfig.LogLevel, "Logging level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().Int("verbosity", config.DefaultConfig.Verbosity, "Logging verbosity 0-5, used when log_level is unknown")
	rootCmd.PersistentFlags().Bool("enable_metrics", config.DefaultConfig.EnableMetrics, "Print run metrics after a command finishes")

	// Bind flag persisten ke Viper. Ini memungkinkan nilai flag CLI menimpa nilai dari file config/env.
	viper.BindPFlag("datadir", rootCmd.PersistentFlags().Lookup("datadir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))
	viper.BindPFlag("verbosity", rootCmd.PersistentFlags().Lookup("verbosity"))
	viper.BindPFlag("enable_metrics", rootCmd.PersistentFlags().Lookup("enable_metrics"))

	// Flag yang spesifik untuk sub-perintah (seperti --count untuk generate)
	// didefinisikan di file sub-perintah tersebut dan di-bind ke Viper di sana.
}

// initConfig membaca file konfigurasi dan variabel ENV jika ada.
// Fungsi ini dipanggil oleh cobra.OnInitialize.
func initConfig() {
	if cfgFile != "" {
		// Gunakan file konfigurasi dari flag jika disediakan.
		viper.SetConfigFile(cfgFile)
	} else {
		// Cari file konfigurasi di direktori home dan direktori kerja.
		home, err := os.UserHomeDir()
		if err == nil { // Jangan error jika tidak bisa mendapatkan home dir, cukup jangan tambahkan path itu.
			viper.AddConfigPath(filepath.Join(home, ".chaingen")) // Contoh: $HOME/.chaingen/config.yaml
		}
		viper.AddConfigPath(".")        // Direktori kerja saat ini.
		viper.AddConfigPath("./config") // Direktori config/ di dalam direktori kerja.
		viper.SetConfigName("config")   // Nama file konfigurasi (tanpa ekstensi).
		viper.SetConfigType("yaml")     // Tipe file konfigurasi.
	}

	// Baca juga variabel lingkungan yang cocok.
	viper.AutomaticEnv()                                             // Baca variabel lingkungan.
	viper.SetEnvPrefix("CHAINGEN")                                   // Prefix untuk variabel lingkungan (misalnya, CHAINGEN_DATADIR).
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")) // Ganti . dan - dengan _ di nama ENV var.

	// Jika file konfigurasi ditemukan, baca isinya.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else {
		// Jika error BUKAN karena file tidak ditemukan, laporkan.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file '%s': %s\n", viper.ConfigFileUsed(), err)
		}
		// Jika file tidak ditemukan, itu tidak selalu error, karena kita punya default dan ENV.
	}
}
