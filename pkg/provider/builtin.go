package provider

// Builtin returns the default provider table used when no registry source is
// configured.
func Builtin() *Registry {
	return MustRegistry(builtinDescriptors()...)
}

func builtinDescriptors() []Descriptor {
	gitRef := RefField{Enabled: true, Default: "HEAD", Label: DefaultRefLabel}
	noRef := RefField{Enabled: false}

	return []Descriptor{
		{
			ID:          "gh",
			DisplayName: "GitHub",
			Repo: RepoField{
				Label:       "GitHub repository name or URL",
				Placeholder: "example: binder-examples/requirements or https://github.com/binder-examples/requirements",
			},
			Ref:    gitRef,
			Detect: &DetectRule{Regex: `^(https?://github.com/)?(?<repo>.*)`},
		},
		{
			ID:          "gist",
			DisplayName: "GitHub Gist",
			Repo: RepoField{
				Label:       "Gist ID (username/gistId) or URL",
				Placeholder: "example: username/gistId or https://gist.github.com/username/gistId",
			},
			Ref:    gitRef,
			Detect: &DetectRule{Regex: `^(https?://gist.github.com/)?(?<repo>.*/.*)$`},
		},
		{
			ID:          "gl",
			DisplayName: "GitLab.com",
			Repo: RepoField{
				Label:       "GitLab.com repository or URL",
				Placeholder: "example: groupname/myproject or https://gitlab.com/groupname/myproject",
				URLEncode:   true,
			},
			Ref:    gitRef,
			Detect: &DetectRule{Regex: `^(https?://gitlab.com/)?(?<repo>.*)`},
		},
		{
			ID:          "git",
			DisplayName: "Git repository",
			Repo: RepoField{
				Label:       "Arbitrary git repository URL",
				Placeholder: "example: https://example.com/myrepo.git",
				URLEncode:   true,
			},
			Ref: gitRef,
		},
		{
			ID:          "zenodo",
			DisplayName: "Zenodo DOI",
			Repo: RepoField{
				Label:       "Zenodo DOI",
				Placeholder: "example: 10.5281/zenodo.3242074",
			},
			Ref: noRef,
		},
		{
			ID:          "figshare",
			DisplayName: "Figshare DOI",
			Repo: RepoField{
				Label:       "Figshare DOI",
				Placeholder: "example: 10.6084/m9.figshare.9782777.v1",
			},
			Ref: noRef,
		},
		{
			ID:          "hydroshare",
			DisplayName: "Hydroshare resource",
			Repo: RepoField{
				Label:       "Hydroshare resource id or URL",
				Placeholder: "example: 8f7c2f0341ef4180b0dc53d5fa2c6ea0",
			},
			Ref: noRef,
		},
		{
			ID:          "dataverse",
			DisplayName: "Dataverse DOI",
			Repo: RepoField{
				Label:       "Dataverse DOI",
				Placeholder: "example: 10.7910/DVN/TJCLKP",
			},
			Ref: noRef,
		},
		{
			ID:          "ckan",
			DisplayName: "CKAN dataset",
			Repo: RepoField{
				Label:       "CKAN dataset URL",
				Placeholder: "https://demo.ckan.org/dataset/sample-dataset-1",
				URLEncode:   true,
			},
			Ref: noRef,
		},
		{
			ID:          "user",
			DisplayName: "Curated user project",
			Repo: RepoField{
				Label:       "Username",
				Placeholder: "example: jdoe",
			},
			Ref:    RefField{Enabled: true, Label: "Project name"},
			Detect: &DetectRule{Regex: `^(?<repo>[A-Za-z0-9._-]+)$`},
		},
	}
}
