// Command simplefsutil is a one-shot, non-interactive utility for
// inspecting and mutating a simplefs image from the shell. It exists
// purely as a smoke-test harness over the simplefs package; it is not
// a shell and does not read from stdin.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/grad-os-2019-group10/project-2/simplefs"
	"github.com/grad-os-2019-group10/project-2/util"
)

func usage() {
	fmt.Fprintf(os.Stderr, `simplefsutil -image PATH <command> [args]

Commands:
  format                    create a fresh image at -image
  mkdir PATH                create a directory
  put LOCAL PATH            copy a local file into the image at PATH
  get PATH LOCAL            copy PATH out of the image to a local file
  ls PATH                   list a directory's entries
  rm PATH                   remove a regular file
  rmdir PATH                remove an empty directory
  hexdump SECTOR            dump the raw bytes of a sector
  snapshot LOCAL            save a compressed snapshot of -image to LOCAL
`)
}

func main() {
	image := flag.String("image", "", "path to the simplefs image file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if *image == "" || len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(*image, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "simplefsutil: %v\n", err)
		os.Exit(1)
	}
}

func run(image, cmd string, args []string) error {
	g := simplefs.DefaultGeometry()

	if cmd == "format" {
		if err := os.Remove(image); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing existing image: %w", err)
		}
		_, err := simplefs.Boot(image, g)
		return err
	}

	fs, err := simplefs.Boot(image, g)
	if err != nil {
		return fmt.Errorf("booting %s: %w", image, err)
	}

	switch cmd {
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("mkdir takes exactly one path argument")
		}
		if err := fs.Dir_Create(args[0]); err != nil {
			return err
		}
		return fs.FS_Sync()
	case "put":
		if len(args) != 2 {
			return fmt.Errorf("put takes LOCAL and PATH arguments")
		}
		return put(fs, args[0], args[1])
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("get takes PATH and LOCAL arguments")
		}
		return get(fs, args[0], args[1])
	case "ls":
		if len(args) != 1 {
			return fmt.Errorf("ls takes exactly one path argument")
		}
		return list(fs, args[0])
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("rm takes exactly one path argument")
		}
		if err := fs.File_Unlink(args[0]); err != nil {
			return err
		}
		return fs.FS_Sync()
	case "rmdir":
		if len(args) != 1 {
			return fmt.Errorf("rmdir takes exactly one path argument")
		}
		if err := fs.Dir_Unlink(args[0]); err != nil {
			return err
		}
		return fs.FS_Sync()
	case "hexdump":
		if len(args) != 1 {
			return fmt.Errorf("hexdump takes exactly one sector argument")
		}
		return hexdump(fs, args[0])
	case "snapshot":
		if len(args) != 1 {
			return fmt.Errorf("snapshot takes exactly one local path argument")
		}
		return fs.SyncCompressed(args[0])
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func put(fs *simplefs.FS, localPath, imagePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	if err := fs.File_Create(imagePath); err != nil {
		return fmt.Errorf("creating %s: %w", imagePath, err)
	}
	fd, err := fs.File_Open(imagePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", imagePath, err)
	}
	defer fs.File_Close(fd)
	if _, err := fs.File_Write(fd, data); err != nil {
		return fmt.Errorf("writing %s: %w", imagePath, err)
	}
	return fs.FS_Sync()
}

func get(fs *simplefs.FS, imagePath, localPath string) error {
	fd, err := fs.File_Open(imagePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", imagePath, err)
	}
	defer fs.File_Close(fd)

	chunk := make([]byte, fs.Geometry().MaxFileSize())
	n, err := fs.File_Read(fd, chunk)
	if err != nil {
		return fmt.Errorf("reading %s: %w", imagePath, err)
	}
	return os.WriteFile(localPath, chunk[:n], 0o644)
}

func hexdump(fs *simplefs.FS, sectorArg string) error {
	sector, err := strconv.ParseUint(sectorArg, 10, 32)
	if err != nil {
		return fmt.Errorf("parsing sector %q: %w", sectorArg, err)
	}
	buf, err := fs.ReadSector(uint32(sector))
	if err != nil {
		return fmt.Errorf("reading sector %d: %w", sector, err)
	}
	fmt.Print(util.DumpByteSlice(buf))
	return nil
}

func list(fs *simplefs.FS, path string) error {
	g := fs.Geometry()
	buf := make([]byte, g.MaxFiles*uint32(simplefs.DirentSize()))
	n, err := fs.Dir_Read(path, buf)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", path, err)
	}
	size := simplefs.DirentSize()
	for i := 0; i < n; i++ {
		name, inode := simplefs.DecodeDirEntry(buf[i*size : (i+1)*size])
		fmt.Printf("%-20s inode=%d\n", name, inode)
	}
	return nil
}
