package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xvc-dev/xvc/pkg/storage"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Configure named storage destinations cache content can be pushed to and pulled from",
}

var storageNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Register a new storage",
}

func init() {
	storageCmd.AddCommand(storageNewCmd, storageListCmd, storageRemoveCmd)
	storageNewCmd.AddCommand(storageNewLocalCmd, storageNewGenericCmd, storageNewS3Cmd,
		storageNewMinioCmd, storageNewR2Cmd, storageNewGcsCmd, storageNewWasabiCmd,
		storageNewDigitalOceanCmd, storageNewRsyncCmd, storageNewRcloneCmd)

	for _, c := range []*cobra.Command{storageNewLocalCmd, storageNewGenericCmd, storageNewS3Cmd,
		storageNewMinioCmd, storageNewR2Cmd, storageNewGcsCmd, storageNewWasabiCmd,
		storageNewDigitalOceanCmd, storageNewRsyncCmd, storageNewRcloneCmd} {
		c.Flags().String("name", "", "name this storage is referenced by")
		_ = c.MarkFlagRequired("name")
	}
	storageNewLocalCmd.Flags().String("path", "", "directory this storage writes to")

	storageNewGenericCmd.Flags().String("url", "", "command template used to reach this storage")
	storageNewS3Cmd.Flags().String("bucket", "", "S3 bucket name")
	storageNewS3Cmd.Flags().String("region", "", "S3 region")
	storageNewS3Cmd.Flags().String("prefix", "", "key prefix within the bucket")
	storageNewMinioCmd.Flags().String("bucket", "", "MinIO bucket name")
	storageNewMinioCmd.Flags().String("host", "", "MinIO endpoint host")
	storageNewR2Cmd.Flags().String("bucket", "", "R2 bucket name")
	storageNewGcsCmd.Flags().String("bucket", "", "GCS bucket name")
	storageNewWasabiCmd.Flags().String("bucket", "", "Wasabi bucket name")
	storageNewDigitalOceanCmd.Flags().String("bucket", "", "DigitalOcean Spaces bucket name")
	storageNewRsyncCmd.Flags().String("host", "", "rsync host")
	storageNewRsyncCmd.Flags().String("storage-dir", "", "remote directory rsync writes to")
	storageNewRcloneCmd.Flags().String("url", "", "rclone remote path (remote:path)")
}

func registerStorage(cfg storage.Config) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	cfg.GUID = uuid.New().String()

	backend, err := storage.NewBackend(s.root.GUID, cfg)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return err
	}

	if _, err := s.storage.Add(s.gen, cfg); err != nil {
		return err
	}
	fmt.Printf("Registered storage %q (%s)\n", cfg.Name, cfg.Kind)
	return s.close("storage new")
}

var storageNewLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Register a storage backed by a local directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		path, _ := cmd.Flags().GetString("path")
		return registerStorage(storage.Config{Name: name, Kind: storage.Local, Path: path})
	},
}

var storageNewGenericCmd = &cobra.Command{
	Use:   "generic",
	Short: "Register a storage reachable by a generic shell command template",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		url, _ := cmd.Flags().GetString("url")
		return registerStorage(storage.Config{Name: name, Kind: storage.Generic, URL: url})
	},
}

var storageNewRsyncCmd = &cobra.Command{
	Use:   "rsync",
	Short: "Register a storage reachable over rsync",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		host, _ := cmd.Flags().GetString("host")
		dir, _ := cmd.Flags().GetString("storage-dir")
		return registerStorage(storage.Config{Name: name, Kind: storage.Rsync, Host: host, StorageDir: dir})
	},
}

var storageNewRcloneCmd = &cobra.Command{
	Use:   "rclone",
	Short: "Register a storage reachable through an rclone remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		url, _ := cmd.Flags().GetString("url")
		return registerStorage(storage.Config{Name: name, Kind: storage.Generic, URL: url})
	},
}

var storageNewS3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Register a storage backed by an AWS S3 bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		bucket, _ := cmd.Flags().GetString("bucket")
		region, _ := cmd.Flags().GetString("region")
		prefix, _ := cmd.Flags().GetString("prefix")
		return registerStorage(storage.Config{Name: name, Kind: storage.S3, Bucket: bucket, Region: region, Prefix: prefix})
	},
}

var storageNewMinioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Register a storage backed by a MinIO bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		bucket, _ := cmd.Flags().GetString("bucket")
		host, _ := cmd.Flags().GetString("host")
		return registerStorage(storage.Config{Name: name, Kind: storage.Minio, Bucket: bucket, Host: host})
	},
}

var storageNewR2Cmd = &cobra.Command{
	Use:   "r2",
	Short: "Register a storage backed by a Cloudflare R2 bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		bucket, _ := cmd.Flags().GetString("bucket")
		return registerStorage(storage.Config{Name: name, Kind: storage.R2, Bucket: bucket})
	},
}

var storageNewGcsCmd = &cobra.Command{
	Use:   "gcs",
	Short: "Register a storage backed by a Google Cloud Storage bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		bucket, _ := cmd.Flags().GetString("bucket")
		return registerStorage(storage.Config{Name: name, Kind: storage.Gcs, Bucket: bucket})
	},
}

var storageNewWasabiCmd = &cobra.Command{
	Use:   "wasabi",
	Short: "Register a storage backed by a Wasabi bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		bucket, _ := cmd.Flags().GetString("bucket")
		return registerStorage(storage.Config{Name: name, Kind: storage.Wasabi, Bucket: bucket})
	},
}

var storageNewDigitalOceanCmd = &cobra.Command{
	Use:   "digital-ocean",
	Short: "Register a storage backed by a DigitalOcean Spaces bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		bucket, _ := cmd.Flags().GetString("bucket")
		return registerStorage(storage.Config{Name: name, Kind: storage.DigitalOcean, Bucket: bucket})
	},
}

var storageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		for _, cfg := range s.storage.List() {
			fmt.Printf("%s\t%s\n", cfg.Name, cfg.Kind)
		}
		return nil
	},
}

var storageRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Unregister a storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if err := s.storage.Remove(args[0]); err != nil {
			return err
		}
		return s.close("storage remove")
	},
}
