package github

// repositoryFields is the field set requested for every repository.
const repositoryFields = `
      openIssues: issues(states: OPEN) {
        totalCount
      }
      stargazerCount
      nameWithOwner
      languages(first: 3, orderBy: {field: SIZE, direction: DESC}) {
        totalSize
        edges {
          size
          node {
            name
          }
        }
      }
      openGraphImageUrl
      description
      defaultBranchRef {
        target {
          ... on Commit {
            committedDate
          }
        }
      }`

const organizationQuery = `query ($login: String!) {
  organization(login: $login) {
    name
    avatarUrl
    login
    repositories(
      first: 100
      isLocked: false
      isFork: false
      privacy: PUBLIC
      orderBy: {direction: DESC, field: STARGAZERS}
    ) {
      nodes {` + repositoryFields + `
      }
    }
  }
}`

const repositoryQuery = `query ($repoOwner: String!, $repoName: String!) {
  repository(owner: $repoOwner, name: $repoName) {` + repositoryFields + `
  }
}`
