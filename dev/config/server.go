package config

const SERVER_YML = `
dispatch:
  cron:
    timeZone: "Africa/Nairobi"
  listener:
    port: 3000
  backlog:
    maxPendingMinutes: 15

database:
  driver: sqlite

sqlite:
  passPhrase: passphrase
  dir: data

google:
  storage:
    bucket: "dispatch"
    prefix: "dispatch-dev"
    archiveSchedule: "*/30 * * * *"
    enableArchive: false
  applicationCredentials:
`
