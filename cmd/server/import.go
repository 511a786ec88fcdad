// CLAUDE:SUMMARY CLI subcommands: import a data file with preview/confirm, export backup, students or roster.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/config"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	yes := fs.Bool("yes", false, "confirm without prompting")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: matriculas import [--yes] <arquivo.csv|arquivo.json>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.MustLoad(*cfgPath)

	store, kv, err := openStore(cfg.DataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao abrir o cadastro: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	journal, err := importer.OpenJournal(filepath.Join(cfg.DataDir, "imports.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao abrir o histórico: %v\n", err)
		os.Exit(1)
	}
	defer journal.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao ler %s: %v\n", path, err)
		os.Exit(1)
	}

	ctrl := importer.NewController(store, journal, logger)
	preview, err := ctrl.Read(filepath.Base(path), content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}

	printPreview(preview)

	if !*yes && !confirmPrompt() {
		ctrl.Cancel()
		fmt.Println("Importação cancelada.")
		return
	}

	res, err := ctrl.Confirm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao confirmar: %v\n", err)
		os.Exit(1)
	}

	if res.Replaced {
		fmt.Printf("Backup restaurado: %d escolas, %d alunos.\n", res.SchoolsAdded, res.StudentsAdded)
		return
	}
	fmt.Printf("Importação concluída: %d escolas e %d alunos adicionados.\n", res.SchoolsAdded, res.StudentsAdded)
}

func printPreview(p *importer.Preview) {
	sample, schoolTotal, studentTotal := p.Sample()

	fmt.Printf("Tipo detectado: %s\n", p.Kind)
	if p.CensusSchool != nil {
		fmt.Printf("Escola do censo: %s (%s)\n", p.CensusSchool.Name, p.CensusSchool.Address)
	}
	if schoolTotal > 0 {
		fmt.Printf("\nEscolas (%d):\n", schoolTotal)
		for _, sc := range sample.Schools {
			fmt.Printf("  %-40s %s\n", sc.Name, sc.Address)
		}
		if schoolTotal > len(sample.Schools) {
			fmt.Printf("  ... e mais %d\n", schoolTotal-len(sample.Schools))
		}
	}
	if studentTotal > 0 {
		fmt.Printf("\nAlunos (%d):\n", studentTotal)
		for _, st := range sample.Students {
			fmt.Printf("  %-35s %-12s %s\n", st.Name, st.BirthDate, st.Status)
		}
		if studentTotal > len(sample.Students) {
			fmt.Printf("  ... e mais %d\n", studentTotal-len(sample.Students))
		}
	}
	if len(p.Warnings) > 0 {
		fmt.Printf("\nAvisos:\n")
		for _, w := range p.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	fmt.Println()
}

func confirmPrompt() bool {
	fmt.Print("Confirmar importação? [s/N] ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "s" || answer == "sim"
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	kind := fs.String("kind", "backup", "what to export: backup, students, roster")
	out := fs.String("out", "", "output file (default depends on kind)")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.MustLoad(*cfgPath)

	store, kv, err := openStore(cfg.DataDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao abrir o cadastro: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	var (
		content []byte
		path    string
	)
	switch *kind {
	case "backup":
		content, err = importer.WriteBackup(store)
		path = importer.BackupFilename(time.Now())
	case "students":
		content, err = importer.WriteStudentsExport(store)
		path = "alunos.json"
	case "roster":
		content, err = importer.WriteRosterXLSX(store)
		path = "alunos.xlsx"
	default:
		fmt.Fprintf(os.Stderr, "Tipo desconhecido: %s (use backup, students ou roster)\n", *kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao exportar: %v\n", err)
		os.Exit(1)
	}
	if *out != "" {
		path = *out
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Erro ao gravar %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Exportado: %s\n", path)
}
