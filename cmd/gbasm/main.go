package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Urethramancer/gbasm/assembler"
)

var (
	output   string
	title    string
	entry    string
	cartType uint8
	ramSize  uint8
	dest     uint8
	version  uint8
)

var rootCmd = &cobra.Command{
	Use:   "gbasm [flags] file...",
	Short: "Assembler and linker for LR35902 (Game Boy) sources",
	Long: `gbasm assembles one or more LR35902 assembly source files and links
them into a cartridge ROM image. Files may pull in further sources with
the INCLUDE directive. The image is only written when the whole build
completes without errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asm := assembler.New()
		asm.Entry = entry
		asm.ROM.Title = title
		asm.ROM.CartType = cartType
		asm.ROM.RAMSize = ramSize
		asm.ROM.Dest = dest
		asm.ROM.Version = version

		img, err := asm.AssembleFiles(args...)
		if err != nil {
			if el, ok := err.(*assembler.ErrorList); ok {
				for _, d := range el.Diagnostics() {
					fmt.Fprintln(os.Stderr, d.Error())
				}
				return fmt.Errorf("%d error(s), no output written", el.Len())
			}
			return err
		}

		if err := os.WriteFile(output, img, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Printf("%s: %d bytes (%d banks)\n", output, len(img), len(img)/0x4000)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "out.gb", "output ROM image path")
	rootCmd.Flags().StringVarP(&title, "title", "t", "GBASM", "cartridge title")
	rootCmd.Flags().StringVarP(&entry, "entry", "e", "main", "entry symbol")
	rootCmd.Flags().Uint8Var(&cartType, "cart", 0, "cartridge type byte")
	rootCmd.Flags().Uint8Var(&ramSize, "ram", 0, "RAM size code")
	rootCmd.Flags().Uint8Var(&dest, "dest", 0, "destination code")
	rootCmd.Flags().Uint8Var(&version, "rev", 0, "mask ROM version")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
