// Package gitsync keeps the catalog in step with a Git repository.
//
// A Repository clones the configured branch into a local directory and
// pulls new commits. A Syncer polls the repository and reloads the catalog
// source when a commit touches catalog files under the configured path:
//
//	repo, err := gitsync.NewRepository(&cfg.Catalog.Git)
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//	source, err := catalog.NewSource(repo.CatalogPath())
//	if err != nil {
//	    return err
//	}
//	go gitsync.NewSyncer(repo, source, cfg.Catalog.Git.PollInterval).Run(ctx)
//
// A commit that does not load keeps the previous snapshot serving; the
// syncer logs the failure and waits for the next commit.
//
// Authentication supports HTTPS tokens, SSH keys and anonymous access.
package gitsync
