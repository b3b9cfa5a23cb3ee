package hops

// Canonical child orders per element and version.
var (
	issueOrder300 = []string{
		"id", "description", "title",
		"date_published", "date_notified", "last_modified", "open_access_date",
		"sections", "issue_cover", "issue_galleys", "articles",
	}

	issueOrder301 = []string{
		"id", "description", "issue_identification",
		"date_published", "date_notified", "last_modified", "open_access_date",
		"sections", "issue_covers", "issue_galleys", "articles",
	}

	sectionOrder300 = []string{"id", "abbrev", "policy", "title"}

	identificationOrder = []string{"volume", "number", "year", "title"}

	articleOrder300 = []string{
		"id", "title", "prefix", "subtitle", "abstract",
		"coverage", "type", "source", "rights",
		"comments_to_editor", "authors", "submission_file", "article_galley", "representation",
	}

	articleOrder301 = []string{
		"id", "title", "prefix", "subtitle", "abstract", "coverage", "type", "source", "rights",
		"keywords", "agencies", "disciplines", "subjects", "comments_to_editor", "authors",
		"submission_file", "article_galley",
		"issue_identification", "pages",
	}

	articleOrder310 = []string{
		"id", "title", "prefix", "subtitle", "abstract", "coverage", "type", "source", "rights",
		"licenseUrl", "copyrightHolder", "copyrightYear",
		"keywords", "agencies", "disciplines", "subjects", "comments_to_editor",
		"authors", "submission_file", "article_galley",
		"issue_identification", "pages",
	}

	authorOrder311 = []string{
		"givenname", "familyname", "affiliation", "country", "email", "url", "orcid", "biography",
	}

	// publicationMetadata lists the article children that move into publication, in order.
	publicationMetadata = []string{
		"id",
		"title", "prefix", "subtitle", "abstract", "coverage", "type", "source", "rights",
		"licenseUrl", "copyrightHolder", "copyrightYear",
		"keywords", "agencies", "languages", "disciplines", "subjects",
		"authors", "article_galley", "citations",
	}

	// publicationExtension lists the native extension children that move into publication.
	publicationExtension = []string{"issue_identification", "pages", "covers"}

	// publicationAttrs lists the article attributes that move onto publication.
	publicationAttrs = []string{"section_ref", "seq", "access_status", "date_published"}

	publicationOrder = append(append([]string{}, publicationMetadata...),
		"issue_identification", "pages", "covers", "issueId")

	articleOrder320 = []string{"id", "submission_file", "publication"}

	submissionFileOrder320 = []string{
		"id", "creator", "description", "name", "publisher", "source", "sponsor", "subject",
		"submission_file_ref", "file",
	}

	submissionFileOrder330 = []string{
		"creator", "description", "name", "file", "publication_format", "sales_rights",
	}
)
