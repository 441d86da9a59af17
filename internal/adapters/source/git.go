package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
	"go.trai.ch/protobuild/internal/core/domain"
)

var commitPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// isCommitHash reports whether ref is a full SHA-1 commit id.
func isCommitHash(ref string) bool {
	return commitPattern.MatchString(ref)
}

// GitSource handles remote git repositories. It only provides source checkouts.
type GitSource struct {
	authFor func(uri string) transport.AuthMethod
}

// NewGitSource creates a GitSource using credentials from ~/.ssh and the environment.
func NewGitSource() *GitSource {
	return &GitSource{authFor: defaultAuth}
}

// Name implements ports.Source.
func (s *GitSource) Name() string { return "git" }

// Accepts implements ports.Source.
func (s *GitSource) Accepts(uri string) bool {
	switch {
	case strings.HasPrefix(uri, "git://"), strings.HasPrefix(uri, "ssh://"), strings.HasPrefix(uri, "git@"):
		return true
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return strings.HasSuffix(strings.TrimSuffix(uri, "/"), ".git")
	}
	return false
}

// Lookup resolves ref against the remote's advertised references.
func (s *GitSource) Lookup(ctx context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	commit, err := s.resolveRemoteRef(ctx, uri, ref)
	if err != nil {
		return nil, err
	}
	return &domain.ResolvedPackageMetadata{
		Source:          s.Name(),
		URI:             uri,
		Ref:             ref,
		Platform:        platform,
		Commit:          commit,
		SourceAvailable: true,
		GitURI:          uri,
	}, nil
}

func (s *GitSource) resolveRemoteRef(ctx context.Context, uri, ref string) (string, error) {
	if isCommitHash(ref) {
		return strings.ToLower(ref), nil
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{uri},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: s.authFor(uri)})
	if err != nil {
		return "", classifyGitError(uri, err)
	}

	var head string
	for _, r := range refs {
		switch r.Name() {
		case plumbing.NewBranchReferenceName(ref), plumbing.NewTagReferenceName(ref):
			return r.Hash().String(), nil
		case plumbing.HEAD:
			head = r.Hash().String()
		}
	}

	if (ref == domain.DefaultGitRef || ref == "HEAD") && head != "" && head != plumbing.ZeroHash.String() {
		return head, nil
	}
	return "", domain.NewFetchError(domain.FetchRefNotFound, uri, errors.New("no branch or tag named "+ref))
}

// DownloadBinary implements ports.Source. Git remotes have no prebuilt archives.
func (s *GitSource) DownloadBinary(_ context.Context, meta *domain.ResolvedPackageMetadata, _ io.Writer) error {
	return domain.NewFetchError(domain.FetchBinaryUnavailable, meta.URI, errors.New("git sources only provide source checkouts"))
}

// CheckoutSource clones meta.GitURI into dest, or fetches into the repository already there,
// and checks out meta.Commit.
func (s *GitSource) CheckoutSource(ctx context.Context, meta *domain.ResolvedPackageMetadata, dest string) error {
	return checkout(ctx, meta.GitURI, meta.Commit, dest, s.authFor(meta.GitURI))
}

// LocalGitPrefix marks URIs naming a repository on the local filesystem.
const LocalGitPrefix = "local-git://"

var installFileServer sync.Once

// LocalGitSource handles local-git:// URIs with go-git's in-process file transport.
type LocalGitSource struct{}

// NewLocalGitSource creates a LocalGitSource.
func NewLocalGitSource() *LocalGitSource {
	installFileServer.Do(func() {
		client.InstallProtocol("file", server.DefaultServer)
	})
	return &LocalGitSource{}
}

// Name implements ports.Source.
func (s *LocalGitSource) Name() string { return "local-git" }

// Accepts implements ports.Source.
func (s *LocalGitSource) Accepts(uri string) bool {
	return strings.HasPrefix(uri, LocalGitPrefix)
}

// Lookup resolves ref in the local repository.
func (s *LocalGitSource) Lookup(_ context.Context, uri, ref, platform string) (*domain.ResolvedPackageMetadata, error) {
	path, err := filepath.Abs(strings.TrimPrefix(uri, LocalGitPrefix))
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil && ref == domain.DefaultGitRef {
		hash, err = repo.ResolveRevision(plumbing.Revision(plumbing.HEAD))
	}
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchRefNotFound, uri, err)
	}

	return &domain.ResolvedPackageMetadata{
		Source:          s.Name(),
		URI:             uri,
		Ref:             ref,
		Platform:        platform,
		Commit:          hash.String(),
		SourceAvailable: true,
		GitURI:          path,
	}, nil
}

// DownloadBinary implements ports.Source.
func (s *LocalGitSource) DownloadBinary(_ context.Context, meta *domain.ResolvedPackageMetadata, _ io.Writer) error {
	return domain.NewFetchError(domain.FetchBinaryUnavailable, meta.URI, errors.New("local git sources only provide source checkouts"))
}

// CheckoutSource clones the local repository into dest.
func (s *LocalGitSource) CheckoutSource(ctx context.Context, meta *domain.ResolvedPackageMetadata, dest string) error {
	return checkout(ctx, meta.GitURI, meta.Commit, dest, nil)
}

// checkout makes dest a working copy of url at commit. An existing repository in dest is reused
// and its origin repointed at url, so switching a package's source keeps local history.
func checkout(ctx context.Context, url, commit, dest string, auth transport.AuthMethod) error {
	repo, err := git.PlainOpen(dest)
	switch {
	case err == nil:
		if err := setOrigin(repo, url); err != nil {
			return domain.NewFetchError(domain.FetchSourceUnavailable, url, err)
		}
		err = repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: "origin",
			Auth:       auth,
			Tags:       git.AllTags,
			Force:      true,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return classifyGitError(url, err)
		}
	case errors.Is(err, git.ErrRepositoryNotExists):
		if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
			return domain.NewFetchError(domain.FetchSourceUnavailable, url, err)
		}
		repo, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
			URL:  url,
			Auth: auth,
		})
		if err != nil {
			return classifyGitError(url, err)
		}
	default:
		return domain.NewFetchError(domain.FetchSourceUnavailable, url, err)
	}

	if commit == "" {
		return nil
	}

	hash := plumbing.NewHash(commit)
	if tag, err := repo.TagObject(hash); err == nil {
		hash = tag.Target
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return domain.NewFetchError(domain.FetchSourceUnavailable, url, err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return domain.NewFetchError(domain.FetchRefNotFound, url, err)
	}
	return nil
}

func setOrigin(repo *git.Repository, url string) error {
	cfg, err := repo.Config()
	if err != nil {
		return err
	}
	origin, ok := cfg.Remotes["origin"]
	if ok && len(origin.URLs) == 1 && origin.URLs[0] == url {
		return nil
	}
	cfg.Remotes["origin"] = &config.RemoteConfig{
		Name:  "origin",
		URLs:  []string{url},
		Fetch: []config.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
	}
	return repo.SetConfig(cfg)
}

// classifyGitError maps go-git transport errors to fetch error kinds.
func classifyGitError(uri string, err error) error {
	kind := domain.FetchUnreachable
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		kind = domain.FetchAuth
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		kind = domain.FetchRefNotFound
	}
	return domain.NewFetchError(kind, uri, err)
}

// defaultAuth picks credentials by URI scheme: an SSH key for ssh and scp-like URIs, a token
// from the environment for HTTP.
func defaultAuth(uri string) transport.AuthMethod {
	if strings.HasPrefix(uri, "git@") || strings.HasPrefix(uri, "ssh://") {
		return sshAuth()
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return httpAuth()
	}
	return nil
}

func sshAuth() transport.AuthMethod {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func httpAuth() transport.AuthMethod {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "x-access-token", Password: token}
	}
	if token := os.Getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "git", Password: token}
	}
	return nil
}
